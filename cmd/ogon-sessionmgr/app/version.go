package app

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

const unknownStr = "unknown"

// Version, Commit, and BuildDate are set by the build via -ldflags.
var (
	Version   = "dev"
	Commit    = unknownStr
	BuildDate = unknownStr
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print ogon-sessionmgr's version",
		Run: func(_ *cobra.Command, _ []string) {
			version, commit := Version, Commit
			if version == "dev" {
				if info, ok := debug.ReadBuildInfo(); ok {
					for _, s := range info.Settings {
						if s.Key == "vcs.revision" && commit == unknownStr {
							commit = s.Value
						}
					}
				}
			}
			fmt.Printf("ogon-sessionmgr %s\n", version)
			fmt.Printf("commit: %s\n", commit)
			fmt.Printf("built: %s\n", BuildDate)
			fmt.Printf("go version: %s (%s/%s)\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
