package main

import (
	"os"

	"github.com/stevemurr/lsdb/cli"
)

func main() {
	rc, _ := cli.Cli(os.Args[1:], cli.NewCliConfig())
	os.Exit(rc)
}
