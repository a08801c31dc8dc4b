package main

import (
	"os"

	"github.com/polarcraft/polarstudio/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
