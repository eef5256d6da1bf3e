package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"discvault/internal/session"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, session.ErrAborted) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(session.ExitCode(err))
	}
}
