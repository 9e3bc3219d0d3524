package main

import (
	"fmt"
	"os"

	"soa-matching-service/cmd/soamatch/cmd"
	apperrors "soa-matching-service/pkg/errors"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, date)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		if matchingErr, ok := apperrors.AsMatchingError(err); ok {
			os.Exit(matchingErr.GetExitCode())
		}
		os.Exit(1)
	}
}
