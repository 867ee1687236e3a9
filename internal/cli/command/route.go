package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/portalshell-go/internal/core/domain"
	"github.com/yndnr/portalshell-go/internal/router"
)

// RoutesCommand returns the routes command.
func RoutesCommand() *cli.Command {
	return &cli.Command{
		Name:   "routes",
		Usage:  "List the client-side routes",
		Action: routesAction,
	}
}

// OpenCommand returns the open command.
func OpenCommand() *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "Navigate to a path and show the view it resolves to",
		ArgsUsage: "PATH",
		Action:    openAction,
	}
}

// routeView is the printable form of a route.
type routeView struct {
	Path     string `json:"path" yaml:"path"`
	View     string `json:"view,omitempty" yaml:"view,omitempty"`
	Redirect string `json:"redirect,omitempty" yaml:"redirect,omitempty"`
}

func routeViews(t *router.Table) []routeView {
	routes := t.Routes()
	views := make([]routeView, 0, len(routes))
	for _, r := range routes {
		views = append(views, routeView{Path: r.Path, View: string(r.View), Redirect: r.Redirect})
	}
	return views
}

// locationView is the printable form of a location.
type locationView struct {
	Path      string `json:"path" yaml:"path"`
	Requested string `json:"requested,omitempty" yaml:"requested,omitempty"`
	View      string `json:"view" yaml:"view"`
}

func newLocationView(l domain.Location) locationView {
	return locationView{Path: l.Path, Requested: l.Requested, View: string(l.View)}
}

func routesAction(c *cli.Context) error {
	rt, err := newRuntime(c)
	if err != nil {
		return err
	}
	defer rt.close()

	return rt.render(routeViews(rt.app.Routes))
}

func openAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return domain.ErrMissingArgument.WithDetails("usage: open PATH")
	}

	rt, err := newRuntime(c)
	if err != nil {
		return err
	}
	defer rt.close()

	rt.app.Navigator.GoToContext(ctxOf(c), c.Args().First())
	return rt.render(newLocationView(rt.app.Navigator.Current()))
}
