package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/portalshell-go/internal/cli/repl"
	"github.com/yndnr/portalshell-go/internal/client/pipeline"
	"github.com/yndnr/portalshell-go/internal/config"
	"github.com/yndnr/portalshell-go/internal/core/domain"
	"github.com/yndnr/portalshell-go/internal/infra/shutdown"
	"github.com/yndnr/portalshell-go/internal/telemetry/logger"
)

const shutdownTimeout = 5 * time.Second

// exitFunc ends the process when the shell is interrupted.
var exitFunc = os.Exit

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Start an interactive session that keeps the portal mounted",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve /metrics on this address (overrides metrics.address)",
			},
			&cli.StringFlag{
				Name:  "history",
				Usage: "History file (default ~/.portal/history)",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Keep history in memory only",
			},
		},
		Action: shellAction,
	}
}

func shellAction(c *cli.Context) error {
	rt, err := newRuntime(c)
	if err != nil {
		return err
	}

	h := shutdown.NewHandler(shutdownTimeout)
	h.OnShutdown(func(context.Context) error { return rt.app.Close() })

	hist := repl.NewHistory(historyPath(c))
	if err := hist.Load(); err != nil {
		rt.app.Logger.Warn("load history", "error", err)
	}
	h.OnShutdown(func(context.Context) error { return hist.Save() })

	addr := c.String("metrics-addr")
	if addr == "" {
		addr = rt.app.Config.Metrics.Address
	}
	if addr != "" {
		srv, bound, err := serveMetrics(addr, rt.app.Metrics.Handler())
		if err != nil {
			_ = h.Shutdown()
			return err
		}
		h.OnShutdown(srv.Shutdown)
		fmt.Fprintf(c.App.ErrWriter, "metrics on http://%s/metrics\n", bound)
	}

	r := repl.New(
		repl.WithIO(c.App.Reader, c.App.Writer),
		repl.WithHistory(hist),
		repl.WithPrompt(func() string {
			return fmt.Sprintf("portal:%s> ", rt.app.Navigator.Current().Path)
		}),
	)
	registerShellCommands(r, rt)

	ctx, cancel := context.WithCancel(ctxOf(c))
	defer cancel()
	replDone := make(chan struct{})
	go func() {
		_ = h.Wait(ctx)
		select {
		case <-replDone:
		default:
			exitFunc(130)
		}
	}()

	fmt.Fprintf(rt.out, "Connected to %s. Type help for commands.\n", rt.app.HTTP.BaseURL())
	runErr := r.Run(ctx)
	close(replDone)
	cancel()

	if err := h.Shutdown(); err != nil {
		rt.app.Logger.Warn("shutdown", "error", err)
	}
	return runErr
}

func historyPath(c *cli.Context) string {
	if c.Bool("no-history") {
		return ""
	}
	if p := c.String("history"); p != "" {
		return config.ExpandHome(p)
	}
	return filepath.Join(config.Dir(), "history")
}

// serveMetrics starts the metrics endpoint and returns the bound address.
func serveMetrics(addr string, handler http.Handler) (*http.Server, string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", fmt.Errorf("listen metrics: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
		}
	}()
	return srv, ln.Addr().String(), nil
}

func registerShellCommands(r *repl.REPL, rt *runtime) {
	out := r.Output()

	r.Register(repl.Command{
		Name:    "open",
		Aliases: []string{"cd"},
		Usage:   "PATH",
		Summary: "navigate to a route",
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return domain.ErrMissingArgument.WithDetails("usage: open PATH")
			}
			rt.app.Navigator.GoToContext(ctx, args[0])
			printLocation(out, rt.app.Navigator.Current())
			return nil
		},
	})
	r.Register(repl.Command{
		Name:    "back",
		Summary: "return to the previous location",
		Run: func(ctx context.Context, args []string) error {
			if !rt.app.Navigator.Back() {
				fmt.Fprintln(out, "no previous location")
				return nil
			}
			printLocation(out, rt.app.Navigator.Current())
			return nil
		},
	})
	r.Register(repl.Command{
		Name:    "where",
		Aliases: []string{"pwd"},
		Summary: "show the current location and navigation history",
		Run: func(ctx context.Context, args []string) error {
			printLocation(out, rt.app.Navigator.Current())
			history := rt.app.Navigator.History()
			for i := len(history) - 1; i >= 0; i-- {
				fmt.Fprintf(out, "  <- %s (%s)\n", history[i].Path, history[i].View)
			}
			return nil
		},
	})
	r.Register(repl.Command{
		Name:    "routes",
		Summary: "list the client-side routes",
		Run: func(ctx context.Context, args []string) error {
			return rt.render(routeViews(rt.app.Routes))
		},
	})

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		usage := "PATH"
		if method != http.MethodGet && method != http.MethodDelete {
			usage = "PATH [JSON]"
		}
		r.Register(repl.Command{
			Name:    strings.ToLower(method),
			Usage:   usage,
			Summary: "send an authenticated " + method + " request",
			Run: func(ctx context.Context, args []string) error {
				if len(args) == 0 {
					return domain.ErrMissingArgument.WithDetails("usage: " + strings.ToLower(method) + " " + usage)
				}
				body := []byte(strings.Join(args[1:], " "))
				result, err := send(ctx, rt.app, method, args[0], body)
				if err != nil {
					return shellError(err)
				}
				return rt.render(result)
			},
		})
	}

	r.Register(repl.Command{
		Name:      "login",
		Usage:     "ACCOUNT PASSWORD",
		Summary:   "log in and open the role's dashboard",
		Sensitive: true,
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 2 {
				return domain.ErrMissingArgument.WithDetails("usage: login ACCOUNT PASSWORD")
			}
			p, err := rt.app.Login(ctx, args[0], args[1])
			if err != nil {
				return loginFailed(err)
			}
			return rt.render(newPrincipalView(p, rt.app.Navigator.Current()))
		},
	})
	r.Register(repl.Command{
		Name:    "logout",
		Summary: "clear the session and return to login",
		Run: func(ctx context.Context, args []string) error {
			if err := rt.app.Logout(ctx); err != nil {
				return err
			}
			printLocation(out, rt.app.Navigator.Current())
			return nil
		},
	})
	r.Register(repl.Command{
		Name:    "whoami",
		Summary: "show the logged-in account",
		Run: func(ctx context.Context, args []string) error {
			p, err := rt.app.Whoami(ctx)
			if err != nil {
				return shellError(err)
			}
			return rt.render(newPrincipalView(p, rt.app.Navigator.Current()))
		},
	})
	r.Register(repl.Command{
		Name:    "loglevel",
		Usage:   "[LEVEL]",
		Summary: "show or change the log level",
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				level, err := logger.ParseLevel(args[0])
				if err != nil {
					return domain.ErrInvalidArgument.WithDetails(err.Error())
				}
				rt.logLevel.Set(level)
			}
			fmt.Fprintln(out, logger.LevelName(rt.logLevel.Level()))
			return nil
		},
	})
	r.Register(repl.Command{
		Name:    "token",
		Summary: "show the stored token (masked)",
		Run: func(ctx context.Context, args []string) error {
			v := tokenView{Backend: rt.app.Config.Session.Backend}
			if tok, ok := rt.app.Store.Get(ctx); ok {
				v.Present = true
				v.Token = tok.Masked()
			}
			return rt.render(v)
		},
	})
}

func printLocation(w io.Writer, l domain.Location) {
	fmt.Fprintf(w, "%s (%s)\n", l.Path, l.View)
}

// shellError keeps the shell running after a rejected session; the
// navigator has already moved to the login view.
func shellError(err error) error {
	if pipeline.IsUnauthorized(err) {
		return errors.New(msgSessionExpired)
	}
	if errors.Is(err, domain.ErrUnauthorized) {
		return errors.New("not logged in, use: login ACCOUNT PASSWORD")
	}
	return err
}
