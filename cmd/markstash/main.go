// Command markstash serves the favorites HTTP API.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "markstash: %v\n", err)
		os.Exit(1)
	}
}
