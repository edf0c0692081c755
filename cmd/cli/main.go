package main

import (
	"github.com/mchmarny/molweight/pkg/cli"
)

func main() {
	cli.Execute()
}
