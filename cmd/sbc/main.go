package main

import (
	"os"

	"github.com/cognicore/sbc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
