package frontauth

import (
	"net/url"
)

// Route is an abstract navigation target
type Route string

const (
	RouteLogin     Route = "login"
	RouteAdmin     Route = "admin"
	RouteStaff     Route = "staff"
	RouteCatalog   Route = "catalog"
	RouteHome      Route = "home"
	RouteDashboard Route = "dashboard"
)

// Known role identifiers
const (
	RoleAdministrator = 1
	RoleEmployee      = 2
	RoleCatalogViewer = 3
)

// Destination is where the user should be sent next. Error is only carried
// on the login route.
type Destination struct {
	Route Route
	Error string
}

// Navigator performs the actual navigation to a destination
type Navigator interface {
	Navigate(dest Destination)
}

// NavigatorFunc adapts a function to a Navigator
type NavigatorFunc func(dest Destination)

func (f NavigatorFunc) Navigate(dest Destination) { f(dest) }

// RouteTable maps routes to URL paths
type RouteTable map[Route]string

// DefaultRoutes are the paths used by the web front end
var DefaultRoutes = RouteTable{
	RouteLogin:     "/login",
	RouteAdmin:     "/administrador",
	RouteStaff:     "/empleado",
	RouteCatalog:   "/catalogo",
	RouteHome:      "/home",
	RouteDashboard: "/dashboard",
}

// URL renders a destination as a path, falling back to DefaultRoutes and
// then to "/" for unknown routes.
func (t RouteTable) URL(dest Destination) string {
	path := t[dest.Route]
	if path == "" {
		path = DefaultRoutes[dest.Route]
	}
	if path == "" {
		path = "/"
	}
	if dest.Error != "" {
		path += "?" + url.Values{"error": {dest.Error}}.Encode()
	}
	return path
}

// RedirectPolicy maps an authenticated user's role to a landing route. It
// is total: any role without an entry goes to Default.
type RedirectPolicy struct {
	Roles   map[int]Route
	Default Route
}

func DefaultRedirectPolicy() *RedirectPolicy {
	return &RedirectPolicy{
		Roles: map[int]Route{
			RoleAdministrator: RouteAdmin,
			RoleEmployee:      RouteStaff,
			RoleCatalogViewer: RouteCatalog,
		},
		Default: RouteHome,
	}
}

// RouteFor returns the landing destination for roleID
func (p *RedirectPolicy) RouteFor(roleID int) Destination {
	if p == nil {
		p = DefaultRedirectPolicy()
	}
	if route, ok := p.Roles[roleID]; ok && route != "" {
		return Destination{Route: route}
	}
	return Destination{Route: p.fallback()}
}

// RouteForUser returns the landing destination for a user profile. Users
// without a numeric role_id get the default route.
func (p *RedirectPolicy) RouteForUser(user UserProfile) Destination {
	if p == nil {
		p = DefaultRedirectPolicy()
	}
	roleID, ok := user.RoleID()
	if !ok {
		return Destination{Route: p.fallback()}
	}
	return p.RouteFor(roleID)
}

func (p *RedirectPolicy) fallback() Route {
	if p.Default == "" {
		return RouteHome
	}
	return p.Default
}
