package main

import "github.com/sgov-project/sgov/internal/cli"

func main() {
	cli.Execute()
}
