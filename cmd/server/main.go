package main

import "househunt/internal/cli"

func main() {
	cli.Execute()
}
