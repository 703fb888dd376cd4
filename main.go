package main

import (
	"fmt"
	"os"

	"dashstudio/internal/cli"
)

var Version string = "0.1.0"

func main() {
	cli.Version = Version
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
