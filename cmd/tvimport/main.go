package main

import (
	"fmt"
	"os"

	"github.com/JonMunkholm/tvimport/internal/cli"
	"github.com/JonMunkholm/tvimport/internal/failure"
)

func main() {
	if err := cli.Execute(); err != nil {
		// cobra has printed the error; add guidance when we have some.
		if failure.IsKnown(err) {
			fmt.Fprintln(os.Stderr, failure.Format(err))
		}
		os.Exit(1)
	}
}
