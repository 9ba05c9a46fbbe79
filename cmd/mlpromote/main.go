// Package main is the entry point of the mlpromote CLI.
package main

import (
	"fmt"
	"os"

	"model-promotion-service/internal/cli"
)

func main() {
	rootCmd := cli.NewRootCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCodeFromError(err))
	}
}
