package command

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// TokenCommand returns the token subcommand group.
func TokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Inspect or clear the stored session token",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the stored token (masked)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "reveal",
						Usage: "Print the full token",
					},
				},
				Action: tokenShow,
			},
			{
				Name:   "clear",
				Usage:  "Remove the stored token without contacting the server",
				Action: tokenClear,
			},
		},
	}
}

// tokenView is the printable form of the session slot.
type tokenView struct {
	Backend string `json:"backend" yaml:"backend"`
	Present bool   `json:"present" yaml:"present"`
	Token   string `json:"token,omitempty" yaml:"token,omitempty"`
	// Fingerprint identifies the token without revealing it.
	Fingerprint string `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
}

func tokenShow(c *cli.Context) error {
	rt, err := newRuntime(c)
	if err != nil {
		return err
	}
	defer rt.close()

	v := tokenView{Backend: rt.app.Config.Session.Backend}
	if tok, ok := rt.app.Store.Get(ctxOf(c)); ok {
		v.Present = true
		v.Token = tok.Masked()
		v.Fingerprint = tok.Fingerprint()
		if c.Bool("reveal") {
			v.Token = tok.String()
		}
	}
	return rt.render(v)
}

func tokenClear(c *cli.Context) error {
	rt, err := newRuntime(c)
	if err != nil {
		return err
	}
	defer rt.close()

	if err := rt.app.Store.Clear(ctxOf(c)); err != nil {
		return err
	}
	fmt.Fprintln(rt.out, "Token cleared.")
	return nil
}
