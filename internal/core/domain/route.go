// Package domain defines the core domain models for the portal shell.
package domain

// Well-known client-side paths.
const (
	PathRoot    = "/"
	PathLogin   = "/login"
	PathAdmin   = "/admin"
	PathTeacher = "/teacher"
	PathStudent = "/student"
)

// View identifies a displayable view.
type View string

// Views known to the portal.
const (
	ViewLogin            View = "login"
	ViewAdminDashboard   View = "admin-dashboard"
	ViewTeacherDashboard View = "teacher-dashboard"
	ViewStudentDashboard View = "student-dashboard"
	ViewNotFound         View = "not-found"
)

// Route is a static (path, view) pair. A route with a non-empty Redirect
// has no view of its own.
type Route struct {
	Path     string `json:"path" yaml:"path"`
	View     View   `json:"view,omitempty" yaml:"view,omitempty"`
	Redirect string `json:"redirect,omitempty" yaml:"redirect,omitempty"`
}

// IsRedirect reports whether the route only forwards to another path.
func (r Route) IsRedirect() bool {
	return r.Redirect != ""
}

// Location is the navigator's current position.
type Location struct {
	// Path is the resolved path after redirects.
	Path string `json:"path" yaml:"path"`
	// Requested is the path originally asked for.
	Requested string `json:"requested,omitempty" yaml:"requested,omitempty"`
	// View is the view rendered at Path.
	View View `json:"view" yaml:"view"`
}

// IsZero reports whether no navigation has happened yet.
func (l Location) IsZero() bool {
	return l.Path == "" && l.View == ""
}

// Role is a principal role issued by the backend.
type Role string

// Roles known to the backend.
const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// DashboardPath returns the landing path for a role.
// Unknown roles land on the login view.
func (r Role) DashboardPath() string {
	switch r {
	case RoleAdmin:
		return PathAdmin
	case RoleTeacher:
		return PathTeacher
	case RoleStudent:
		return PathStudent
	default:
		return PathLogin
	}
}
