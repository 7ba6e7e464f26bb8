package main

import (
	"os"

	"github.com/riichinakano/forest-zaim-app/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
