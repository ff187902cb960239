package main

import (
	"os"

	"botboard/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
