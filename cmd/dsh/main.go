package main

import (
	"os"

	"github.com/marcelocantos/dsh/internal/cli"
)

var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
