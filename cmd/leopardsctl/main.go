package main

import (
	"fmt"
	"os"

	"leopards-connector/internal/cli"
	"leopards-connector/internal/core/logger"
)

func main() {
	err := cli.Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
