// Package main is the metacheck entrypoint. All behavior lives in
// internal/cli; main only maps the returned error onto a process exit code.
// Commands print their own formatted errors, so nothing is printed here.
package main

import (
	"os"

	"github.com/roach88/metacheck/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
