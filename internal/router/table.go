// Package router holds the static route table of the portal.
//
// The table is built once at startup and never changes. Resolution is exact
// path matching after normalization; there are no path parameters and no
// nested routes.
package router

import (
	"sort"
	"strings"

	"github.com/yndnr/portalshell-go/internal/core/domain"
)

// maxRedirects bounds redirect chains during resolution.
const maxRedirects = 8

// Table is an immutable path-to-view mapping.
type Table struct {
	routes map[string]domain.Route
	order  []string
}

// Resolution is the outcome of resolving a path.
type Resolution struct {
	// Requested is the normalized input path.
	Requested string
	// Path is the final path after following redirects.
	Path string
	// View is the view at Path, or domain.ViewNotFound.
	View domain.View
	// Redirected reports whether at least one redirect was followed.
	Redirected bool
}

// Found reports whether the path matched a route.
func (r Resolution) Found() bool {
	return r.View != domain.ViewNotFound
}

// Location converts the resolution into a navigator location.
func (r Resolution) Location() domain.Location {
	loc := domain.Location{Path: r.Path, View: r.View}
	if r.Redirected {
		loc.Requested = r.Requested
	}
	return loc
}

// Default returns the portal's route table:
// /login, /admin, /teacher, /student and / redirecting to /login.
func Default() *Table {
	t, err := New(
		domain.Route{Path: domain.PathLogin, View: domain.ViewLogin},
		domain.Route{Path: domain.PathAdmin, View: domain.ViewAdminDashboard},
		domain.Route{Path: domain.PathTeacher, View: domain.ViewTeacherDashboard},
		domain.Route{Path: domain.PathStudent, View: domain.ViewStudentDashboard},
		domain.Route{Path: domain.PathRoot, Redirect: domain.PathLogin},
	)
	if err != nil {
		panic("router: default table is invalid: " + err.Error())
	}
	return t
}

// New builds a table from routes, validating paths, duplicates, redirect
// targets and redirect loops.
func New(routes ...domain.Route) (*Table, error) {
	t := &Table{routes: make(map[string]domain.Route, len(routes))}

	for _, r := range routes {
		if !strings.HasPrefix(r.Path, "/") {
			return nil, domain.ErrRouteInvalid.WithDetails("path must be absolute: " + r.Path)
		}
		if r.View == "" && r.Redirect == "" {
			return nil, domain.ErrRouteInvalid.WithDetails("route has neither view nor redirect: " + r.Path)
		}
		if r.View != "" && r.Redirect != "" {
			return nil, domain.ErrRouteInvalid.WithDetails("route has both view and redirect: " + r.Path)
		}
		path := Normalize(r.Path)
		if _, exists := t.routes[path]; exists {
			return nil, domain.ErrRouteConflict.WithDetails(path)
		}
		r.Path = path
		if r.Redirect != "" {
			r.Redirect = Normalize(r.Redirect)
		}
		t.routes[path] = r
		t.order = append(t.order, path)
	}

	for _, path := range t.order {
		r := t.routes[path]
		if !r.IsRedirect() {
			continue
		}
		if _, ok := t.routes[r.Redirect]; !ok {
			return nil, domain.ErrRouteInvalid.WithDetails("redirect target not found: " + r.Redirect)
		}
		if res := t.Resolve(path); !res.Found() {
			return nil, domain.ErrRedirectLoop.WithDetails(path)
		}
	}

	return t, nil
}

// Resolve maps a path to its view, following redirects. Unknown paths
// resolve to domain.ViewNotFound; Resolve never fails.
func (t *Table) Resolve(path string) Resolution {
	requested := Normalize(path)
	res := Resolution{Requested: requested, Path: requested, View: domain.ViewNotFound}

	current := requested
	for hops := 0; hops <= maxRedirects; hops++ {
		r, ok := t.routes[current]
		if !ok {
			res.Path = current
			return res
		}
		if !r.IsRedirect() {
			res.Path = current
			res.View = r.View
			return res
		}
		res.Redirected = true
		current = r.Redirect
	}

	// Redirect chain too long: treat as not found.
	res.Path = current
	return res
}

// Routes returns the routes in registration order.
func (t *Table) Routes() []domain.Route {
	out := make([]domain.Route, 0, len(t.order))
	for _, path := range t.order {
		out = append(out, t.routes[path])
	}
	return out
}

// Paths returns every registered path, sorted.
func (t *Table) Paths() []string {
	paths := make([]string, len(t.order))
	copy(paths, t.order)
	sort.Strings(paths)
	return paths
}

// Has reports whether path (after normalization) is registered.
func (t *Table) Has(path string) bool {
	_, ok := t.routes[Normalize(path)]
	return ok
}

// Normalize strips query and fragment, drops a trailing slash and maps an
// empty path to "/".
func Normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	for len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}
