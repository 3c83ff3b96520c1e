// Package main provides the entry point for routedialog.
//
// routedialog serves JSON records and browses them in a Bubble Tea TUI where
// each record opens in a modal dialog bound to its /dialog/{id} route.
//
// Usage:
//
//	routedialog serve [--addr 127.0.0.1:8080]
//	routedialog browse [--base-url http://127.0.0.1:8080]
//	routedialog list
//	routedialog fetch /dialog/42 [--refresh N] [--data JSON]
package main

import (
	"fmt"
	"os"

	"github.com/riordanpawley/routedialog/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
