// Package main is the entry point for the tracker CLI.
package main

import "github.com/interview-tracker/tracker-cli/internal/cli"

func main() {
	cli.Execute()
}
