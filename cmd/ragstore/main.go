package main

import "ragstore/internal/cli"

func main() {
	cli.Execute()
}
