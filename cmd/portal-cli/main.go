// Package main provides the entry point for portal-cli.
//
// portal-cli is the terminal front end of the campus portal: it keeps the
// session token, attaches it to backend calls and returns to the login view
// when the backend rejects the session.
package main

import (
	"fmt"
	"os"

	"github.com/yndnr/portalshell-go/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
