// Package main is the entry point for the ogon Session Manager daemon.
package main

import (
	"fmt"
	"os"

	"github.com/ogon-project/sessionmgr/cmd/ogon-sessionmgr/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ogon-sessionmgr: %v\n", err)
		os.Exit(1)
	}
}
