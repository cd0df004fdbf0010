package main

import "github.com/mchmarny/alphavote/pkg/cli"

func main() {
	cli.Execute()
}
