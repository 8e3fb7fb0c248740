package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	root := newRootCommand()
	err := root.Execute()
	if err == nil {
		return
	}
	// Interrupted follow loops exit quietly.
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "scout:", err)
	}
	os.Exit(1)
}
