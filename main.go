package main

import (
	"os"

	"github.com/fennecbyte/covercache/cmd"
)

func main() {
	if err := cmd.RootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
