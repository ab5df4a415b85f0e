package main

import (
	"os"

	"github.com/vanshika/marketplace/cmd/marketctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
