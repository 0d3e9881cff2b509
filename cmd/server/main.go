package main

import (
	"fmt"
	"os"
)

const serviceName = "room-service"

var (
	version = "0.1.0-dev"
	commit  = "main"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
