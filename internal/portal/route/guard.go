package route

import (
	"net/url"
	"slices"
	"strings"

	"github.com/aussiebroadwan/dentaldesk/internal/portal/domain"
)

type Outcome int

const (
	Render Outcome = iota
	Redirect
	// Loading means the session is still initializing and no decision can be
	// made yet.
	Loading
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	case Loading:
		return "loading"
	default:
		return "unknown"
	}
}

// Decision is the guard's verdict. Path is set for Redirect.
type Decision struct {
	Outcome Outcome
	Path    string
}

func render() Decision           { return Decision{Outcome: Render} }
func redirect(p string) Decision { return Decision{Outcome: Redirect, Path: p} }
func loading() Decision          { return Decision{Outcome: Loading} }

// Evaluate decides whether sess may see r. requested is the path the user
// asked for and is carried on login redirects so they can return to it.
//
// Wrong-role and missing-permission access redirect to the user's own
// dashboard rather than showing an error.
func Evaluate(sess domain.Session, r Route, requested string) Decision {
	if sess.IsLoading() {
		return loading()
	}

	authed := sess.IsAuthenticated()

	switch {
	case r.PublicOnly && authed:
		return redirect(domain.DashboardPath(sess.Role()))

	case r.PasswordChange:
		if sess.State == domain.PasswordChangeRequired {
			return render()
		}
		if authed {
			return redirect(domain.DashboardPath(sess.Role()))
		}
		return redirect(domain.LoginPath)
	}

	needsAuth := r.Auth || len(r.Roles) > 0 || r.Permission != ""
	if !needsAuth {
		return render()
	}
	if !authed {
		return redirect(LoginRedirect(requested))
	}

	role := sess.Role()
	if len(r.Roles) > 0 && !slices.Contains(r.Roles, role) {
		return redirect(domain.DashboardPath(role))
	}
	if r.Permission != "" && !sess.User.Can(r.Permission) {
		return redirect(domain.DashboardPath(role))
	}
	return render()
}

// LoginRedirect is the login path carrying requested as the return target.
func LoginRedirect(requested string) string {
	if !isLocalPath(requested) || requested == domain.LoginPath {
		return domain.LoginPath
	}
	return domain.LoginPath + "?from=" + url.QueryEscape(requested)
}

// PostLoginTarget is where to send a user after login: back to from when
// the guard would render it for them, otherwise their dashboard.
func PostLoginTarget(t *Tree, sess domain.Session, from string) string {
	dashboard := domain.DashboardPath(sess.Role())
	if !isLocalPath(from) {
		return dashboard
	}
	m, ok := t.Match(from)
	if !ok {
		return dashboard
	}
	if Evaluate(sess, m.Route, from).Outcome != Render {
		return dashboard
	}
	return from
}

// isLocalPath rejects absolute and protocol-relative URLs so a crafted
// ?from= cannot send the user off-site.
func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.Contains(p, `\`)
}
