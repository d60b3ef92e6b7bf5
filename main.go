package main

import (
	"github.com/AzielCF/az-citas/cmd"
)

func main() {
	cmd.Execute()
}
