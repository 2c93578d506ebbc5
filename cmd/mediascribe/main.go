package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// Interactive cancellation (ctrl-c in watch) is not a failure
		// worth printing; exit with the conventional SIGINT code.
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, "mediascribe:", err)
		os.Exit(1)
	}
}
