// Package main is the entry point for the ogon Session Manager's
// administrative client.
package main

import (
	"fmt"
	"os"

	"github.com/ogon-project/sessionmgr/cmd/ogon-sessionctl/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ogon-sessionctl: %v\n", err)
		os.Exit(1)
	}
}
