package main

import (
	"os"

	"github.com/apexquant/topoarb/cmd/topoarb/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
