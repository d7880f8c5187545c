package main

import (
	"fmt"
	"os"

	"github.com/mirkobrombin/go-tspawn/internal/cli"
)

func main() {
	if err := cli.NewRootCmd("tspawn-bench").Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
