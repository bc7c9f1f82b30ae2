package main

import (
	"os"
)

var (
	version = "dev"
)

// Entry point for the application
func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
