package main

import (
	"os"

	"github.com/simon020286/promptchain/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
