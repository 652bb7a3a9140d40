package main

import (
	"os"

	"github.com/ppiankov/serialbinder/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
