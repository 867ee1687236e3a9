package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/portalshell-go/internal/app"
	"github.com/yndnr/portalshell-go/internal/cli/output"
	"github.com/yndnr/portalshell-go/internal/client/pipeline"
	"github.com/yndnr/portalshell-go/internal/config"
	"github.com/yndnr/portalshell-go/internal/core/domain"
	"github.com/yndnr/portalshell-go/internal/infra/buildinfo"
	"github.com/yndnr/portalshell-go/internal/telemetry/logger"
)

// Exit codes.
const (
	exitUnauthorized = 2
)

// Messages printed when the server rejects the session.
const (
	msgSessionExpired = "session expired, please log in again"
	msgNotLoggedIn    = "not logged in, run 'portal-cli login' first"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:                 buildinfo.Product,
		Usage:                "Portal shell for the campus system",
		Version:              buildinfo.String(),
		Flags:                globalFlags(),
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			LoginCommand(),
			LogoutCommand(),
			WhoamiCommand(),
			PasswdCommand(),
			RequestCommand(),
			RoutesCommand(),
			OpenCommand(),
			TokenCommand(),
			ConfigCommand(),
			ShellCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Config file (default ~/.portal/config.yaml)",
			EnvVars: []string{"PORTAL_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Backend base URL (e.g., http://localhost:8000)",
			EnvVars: []string{"PORTAL_SERVER"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   string(output.FormatTable),
		},
		&cli.StringFlag{
			Name:  "ca-file",
			Usage: "Extra trusted CA bundle or directory for HTTPS backends",
		},
		&cli.BoolFlag{
			Name:  "insecure",
			Usage: "Skip TLS certificate verification",
		},
		&cli.StringFlag{
			Name:  "session-backend",
			Usage: "Session store: memory, file, badger",
		},
		&cli.StringFlag{
			Name:  "session-file",
			Usage: "Session file for the file backend",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging",
		},
	}
}

// GlobalFlags holds the parsed global flags.
type GlobalFlags struct {
	Config         string
	Server         string
	Output         string
	CAFile         string
	Insecure       bool
	SessionBackend string
	SessionFile    string
	Verbose        bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Config:         c.String("config"),
		Server:         c.String("server"),
		Output:         c.String("output"),
		CAFile:         c.String("ca-file"),
		Insecure:       c.Bool("insecure"),
		SessionBackend: c.String("session-backend"),
		SessionFile:    c.String("session-file"),
		Verbose:        c.Bool("verbose"),
	}
}

// overrides maps the global flags that were set onto config keys.
func (f *GlobalFlags) overrides() map[string]any {
	m := make(map[string]any)
	if f.Server != "" {
		m["api.base_url"] = f.Server
	}
	if f.CAFile != "" {
		m["api.ca_file"] = f.CAFile
	}
	if f.Insecure {
		m["api.insecure_skip_verify"] = true
	}
	if f.SessionBackend != "" {
		m["session.backend"] = f.SessionBackend
	}
	if f.SessionFile != "" {
		m["session.file"] = f.SessionFile
	}
	if f.Verbose {
		m["log.level"] = "debug"
	}
	return m
}

// LoadConfig loads the effective configuration for c.
func LoadConfig(c *cli.Context) (*config.Config, error) {
	flags := ParseGlobalFlags(c)
	return config.Load(flags.Config, flags.overrides())
}

// runtime is what a command action needs: a mounted App and an output sink.
type runtime struct {
	app       *app.App
	out       io.Writer
	formatter output.Formatter
	logLevel  *slog.LevelVar
}

// newRuntime loads the configuration and bootstraps the App.
func newRuntime(c *cli.Context) (*runtime, error) {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return nil, err
	}
	cfg, err := LoadConfig(c)
	if err != nil {
		return nil, err
	}

	level := new(slog.LevelVar)
	log := logger.New(logger.Options{
		Level:    cfg.Log.Level,
		Format:   cfg.Log.Format,
		Output:   c.App.ErrWriter,
		LevelVar: level,
	})
	a, err := app.Bootstrap(ctxOf(c), cfg, app.WithLogger(log))
	if err != nil {
		return nil, err
	}
	return &runtime{
		app:       a,
		out:       c.App.Writer,
		formatter: output.NewFormatter(format),
		logLevel:  level,
	}, nil
}

func (rt *runtime) close() {
	if err := rt.app.Close(); err != nil {
		rt.app.Logger.Warn("close app", "error", err)
	}
}

func (rt *runtime) render(data any) error {
	return rt.formatter.Format(rt.out, data)
}

func ctxOf(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}

// fail turns a session rejection into a user-facing exit error.
func fail(err error) error {
	if err == nil {
		return nil
	}
	if pipeline.IsUnauthorized(err) {
		return cli.Exit(msgSessionExpired, exitUnauthorized)
	}
	if errors.Is(err, domain.ErrUnauthorized) {
		return cli.Exit(msgNotLoggedIn, exitUnauthorized)
	}
	return err
}

// PrintError prints an error message to the app's error writer.
func PrintError(c *cli.Context, format string, args ...any) {
	fmt.Fprintf(c.App.ErrWriter, "error: "+format+"\n", args...)
}
