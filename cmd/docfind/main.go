package main

import "docfind/internal/cli"

func main() {
	cli.Execute()
}
