package app

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version is set by the build via -ldflags.
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print ogon-sessionctl's version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("ogon-sessionctl %s (%s/%s)\n", Version, runtime.GOOS, runtime.GOARCH)
		},
	}
}
