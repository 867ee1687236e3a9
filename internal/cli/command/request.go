package command

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/portalshell-go/internal/app"
	"github.com/yndnr/portalshell-go/internal/core/domain"
)

var methods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// RequestCommand returns the request command.
func RequestCommand() *cli.Command {
	return &cli.Command{
		Name:      "request",
		Aliases:   []string{"req"},
		Usage:     "Send an authenticated request to the backend",
		ArgsUsage: "METHOD PATH",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "JSON request body, or @FILE to read it from a file",
			},
		},
		Action: requestAction,
	}
}

func requestAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return domain.ErrMissingArgument.WithDetails("usage: request METHOD PATH")
	}
	method, err := parseMethod(c.Args().Get(0))
	if err != nil {
		return err
	}
	body, err := readData(c.String("data"))
	if err != nil {
		return err
	}

	rt, err := newRuntime(c)
	if err != nil {
		return err
	}
	defer rt.close()

	result, err := send(ctxOf(c), rt.app, method, c.Args().Get(1), body)
	if err != nil {
		return fail(err)
	}
	return rt.render(result)
}

func parseMethod(s string) (string, error) {
	m := strings.ToUpper(s)
	if !methods[m] {
		return "", domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("unsupported method %q", s))
	}
	return m, nil
}

func readData(data string) ([]byte, error) {
	if name, ok := strings.CutPrefix(data, "@"); ok {
		b, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		return b, nil
	}
	return []byte(data), nil
}

// send issues an API call and decodes the JSON answer. An empty answer
// yields nil.
func send(ctx context.Context, a *app.App, method, path string, body []byte) (any, error) {
	raw, err := a.API.DoRaw(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw), nil
	}
	return v, nil
}
