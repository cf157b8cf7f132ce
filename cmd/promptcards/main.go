// Command promptcards inspects and maintains the prompt card database from
// the terminal: list a profile's cards, copy or export one, delete, and
// import a browser's local storage dump.
package main

import (
	"os"

	"github.com/sakif/prompt-cards/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
