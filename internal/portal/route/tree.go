package route

import (
	"strings"

	"github.com/aussiebroadwan/dentaldesk/internal/portal/domain"
)

// Requirement is what a route asks of the session.
type Requirement struct {
	// Auth requires an authenticated session.
	Auth bool

	// Roles limits the route to these roles. Empty means any role.
	Roles []domain.Role

	// Permission is the admin permission the route needs, if any.
	Permission domain.Permission

	// PublicOnly routes (login, register) send authenticated users to their
	// dashboard.
	PublicOnly bool

	// PasswordChange routes render only while a forced password change is
	// pending.
	PasswordChange bool
}

// Route is one client-side path. Pattern segments starting with ':' are
// parameters.
type Route struct {
	Name    string
	Pattern string
	Requirement
}

// Match is a resolved path.
type Match struct {
	Route  Route
	Params map[string]string
}

type compiled struct {
	route    Route
	segments []string
	literals int
}

// Tree is an immutable route table.
type Tree struct {
	routes []compiled
}

func NewTree(routes ...Route) *Tree {
	t := &Tree{routes: make([]compiled, 0, len(routes))}
	for _, r := range routes {
		segs := split(r.Pattern)
		lit := 0
		for _, s := range segs {
			if !strings.HasPrefix(s, ":") {
				lit++
			}
		}
		t.routes = append(t.routes, compiled{route: r, segments: segs, literals: lit})
	}
	return t
}

// Routes returns the routes in declaration order.
func (t *Tree) Routes() []Route {
	out := make([]Route, len(t.routes))
	for i, c := range t.routes {
		out[i] = c.route
	}
	return out
}

// Lookup returns the route registered under name.
func (t *Tree) Lookup(name string) (Route, bool) {
	for _, c := range t.routes {
		if c.route.Name == name {
			return c.route, true
		}
	}
	return Route{}, false
}

// Match resolves path. When several patterns match, the one with the most
// literal segments wins, so /patient/appointments/book beats
// /patient/appointments/:id.
func (t *Tree) Match(path string) (Match, bool) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	segs := split(path)

	var (
		best   *compiled
		params map[string]string
	)
	for i := range t.routes {
		c := &t.routes[i]
		if len(c.segments) != len(segs) {
			continue
		}
		p, ok := c.match(segs)
		if !ok {
			continue
		}
		if best == nil || c.literals > best.literals {
			best, params = c, p
		}
	}
	if best == nil {
		return Match{}, false
	}
	return Match{Route: best.route, Params: params}, true
}

func (c *compiled) match(segs []string) (map[string]string, bool) {
	var params map[string]string
	for i, want := range c.segments {
		got := segs[i]
		if name, ok := strings.CutPrefix(want, ":"); ok {
			if got == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[name] = got
			continue
		}
		if want != got {
			return nil, false
		}
	}
	return params, true
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
