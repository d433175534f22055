package main

import (
	"os"

	"image-audit/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
