// Command scry-srs runs the spaced-repetition review scheduler.
//
// Subcommands:
//
//	serve     start the HTTP API
//	migrate   apply, roll back or inspect database migrations
//	simulate  replay a sequence of review scores against a fresh item
//	token     issue a bearer token for local testing
package main

import (
	"context"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
