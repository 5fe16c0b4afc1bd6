// Package router decides which view is shown for a route given the
// authentication state.
package router

import "strings"

// Route is a view path.
type Route string

// Known routes.
const (
	Root       Route = "/"
	Login      Route = "/login"
	Register   Route = "/register"
	Home       Route = "/dashboard"
	Statistics Route = "/dashboard/statistics"
	Currency   Route = "/dashboard/currency"
)

// DashboardRoutes lists the views reachable from the dashboard tab bar, in order.
var DashboardRoutes = []Route{Home, Statistics, Currency}

// IsPublic reports whether r is only for anonymous users.
func (r Route) IsPublic() bool {
	return r == Login || r == Register
}

// IsDashboard reports whether r is a signed-in view.
func (r Route) IsDashboard() bool {
	for _, d := range DashboardRoutes {
		if r == d {
			return true
		}
	}
	return false
}

// Title is the label shown for the route.
func (r Route) Title() string {
	switch r {
	case Login:
		return "Log in"
	case Register:
		return "Register"
	case Home:
		return "Home"
	case Statistics:
		return "Statistics"
	case Currency:
		return "Currency"
	default:
		return string(r)
	}
}

// Parse normalizes user input such as "dashboard/statistics/" into a Route.
func Parse(s string) Route {
	s = strings.TrimSpace(s)
	if s == "" {
		return Root
	}
	if !strings.HasPrefix(s, "/") {
		s = "/" + s
	}
	if len(s) > 1 {
		s = strings.TrimRight(s, "/")
	}
	return Route(strings.ToLower(s))
}

// Resolve returns the route actually shown. Unknown or forbidden routes
// redirect instead of failing.
func Resolve(r Route, authenticated bool) Route {
	if authenticated {
		if r.IsDashboard() {
			return r
		}
		return Home
	}
	if r.IsPublic() {
		return r
	}
	return Login
}
