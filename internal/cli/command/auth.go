package command

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/yndnr/portalshell-go/internal/client/api"
	"github.com/yndnr/portalshell-go/internal/client/pipeline"
	"github.com/yndnr/portalshell-go/internal/core/domain"
)

// LoginCommand returns the login command.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in and store the session token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "account",
				Aliases:  []string{"a", "u"},
				Usage:    "Account number",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Password (prompted when omitted)",
				EnvVars: []string{"PORTAL_PASSWORD"},
			},
		},
		Action: loginAction,
	}
}

// LogoutCommand returns the logout command.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Clear the stored session token",
		Action: logoutAction,
	}
}

// WhoamiCommand returns the whoami command.
func WhoamiCommand() *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "Show the logged-in account",
		Action: whoamiAction,
	}
}

// PasswdCommand returns the passwd command.
func PasswdCommand() *cli.Command {
	return &cli.Command{
		Name:  "passwd",
		Usage: "Change the password of the logged-in account",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "old",
				Usage:    "Current password",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "new",
				Usage:    fmt.Sprintf("New password (at least %d characters)", api.MinPasswordLength),
				Required: true,
			},
		},
		Action: passwdAction,
	}
}

// principalView is the printable form of a principal.
type principalView struct {
	Account   string `json:"account" yaml:"account"`
	Role      string `json:"role" yaml:"role"`
	Location  string `json:"location" yaml:"location"`
	ExpiresAt string `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

func newPrincipalView(p *api.Principal, loc domain.Location) principalView {
	v := principalView{
		Account:  p.AccountNo,
		Role:     string(p.Role),
		Location: loc.Path,
	}
	if exp := p.ExpiresAt(); !exp.IsZero() {
		v.ExpiresAt = exp.Local().Format(time.RFC3339)
	}
	return v
}

func loginAction(c *cli.Context) error {
	password := c.String("password")
	if password == "" {
		var err error
		if password, err = readPassword(c); err != nil {
			return err
		}
	}

	rt, err := newRuntime(c)
	if err != nil {
		return err
	}
	defer rt.close()

	p, err := rt.app.Login(ctxOf(c), c.String("account"), password)
	if err != nil {
		return loginFailed(err)
	}
	return rt.render(newPrincipalView(p, rt.app.Navigator.Current()))
}

// loginFailed reports a rejected login separately from an expired session.
func loginFailed(err error) error {
	var re *pipeline.ResponseError
	if pipeline.IsUnauthorized(err) {
		msg := "login failed: wrong account or password"
		if errors.As(err, &re) {
			if d := re.Detail(); d != "" {
				msg = "login failed: " + d
			}
		}
		return cli.Exit(msg, exitUnauthorized)
	}
	return err
}

func logoutAction(c *cli.Context) error {
	rt, err := newRuntime(c)
	if err != nil {
		return err
	}
	defer rt.close()

	if err := rt.app.Logout(ctxOf(c)); err != nil {
		return err
	}
	fmt.Fprintln(rt.out, "Logged out.")
	return nil
}

func whoamiAction(c *cli.Context) error {
	rt, err := newRuntime(c)
	if err != nil {
		return err
	}
	defer rt.close()

	p, err := rt.app.Whoami(ctxOf(c))
	if err != nil {
		return fail(err)
	}
	rt.app.Navigator.GoToContext(ctxOf(c), p.Role.DashboardPath())
	return rt.render(newPrincipalView(p, rt.app.Navigator.Current()))
}

func passwdAction(c *cli.Context) error {
	rt, err := newRuntime(c)
	if err != nil {
		return err
	}
	defer rt.close()

	if _, ok := rt.app.Store.Get(ctxOf(c)); !ok {
		return cli.Exit(msgNotLoggedIn, exitUnauthorized)
	}
	if err := rt.app.API.ChangePassword(ctxOf(c), c.String("old"), c.String("new")); err != nil {
		return fail(err)
	}
	fmt.Fprintln(rt.out, "Password changed.")
	return nil
}

// readPassword prompts on the terminal with echo disabled, or reads one line
// when input is not a terminal.
func readPassword(c *cli.Context) (string, error) {
	if f, ok := c.App.Reader.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(c.App.ErrWriter, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(c.App.ErrWriter)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, _ := bufio.NewReader(c.App.Reader).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", domain.ErrMissingArgument.WithDetails("password")
	}
	return line, nil
}
