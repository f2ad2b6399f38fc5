package main

import (
	"os"

	"github.com/giygas/smpc-comparator/cli"
)

func main() {
	os.Exit(cli.Execute())
}
