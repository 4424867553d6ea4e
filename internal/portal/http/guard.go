package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/dentaldesk/internal/portal/domain"
	"github.com/aussiebroadwan/dentaldesk/internal/portal/route"
	"github.com/aussiebroadwan/dentaldesk/pkg/httpx"
	"github.com/aussiebroadwan/dentaldesk/pkg/slogx"
)

// handlerFunc produces the data of a view or the result of an action.
type handlerFunc func(r *http.Request) (any, error)

// ViewResponse is the body of every rendered view.
type ViewResponse struct {
	Route  string            `json:"route"`
	Params map[string]string `json:"params,omitempty"`
	Data   any               `json:"data,omitempty"`
}

// RedirectResponse accompanies every 303 the guard issues.
type RedirectResponse struct {
	Redirect string `json:"redirect"`
}

// guard gates a handler on the named route's requirement. A non-empty
// permission replaces the route's own, for actions that need more than the
// view they belong to.
func (r *Router) guard(name string, permission ...domain.Permission) httpx.Middleware {
	rt, ok := r.Tree.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("portal: route %q is not in the route tree", name))
	}
	if len(permission) > 0 && permission[0] != "" {
		rt.Permission = permission[0]
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			decision := route.Evaluate(r.Session.Snapshot(), rt, req.URL.RequestURI())

			switch decision.Outcome {
			case route.Loading:
				writeLoading(w)
			case route.Redirect:
				slogx.FromContext(req.Context()).Debug("route guard redirect",
					"route", rt.Name,
					"to", decision.Path,
				)
				writeRedirect(w, req, decision.Path)
			default:
				next.ServeHTTP(w, req)
			}
		})
	}
}

// view renders a guarded read-only route.
func (r *Router) view(name string, fn handlerFunc) http.Handler {
	return httpx.Chain(r.render(name, http.StatusOK, fn), r.guard(name))
}

// action runs a guarded mutation belonging to the named route.
func (r *Router) action(name string, permission domain.Permission, fn handlerFunc) http.Handler {
	return httpx.Chain(r.render(name, http.StatusOK, fn), r.guard(name, permission))
}

func (r *Router) render(name string, status int, fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		data, err := fn(req)
		if err != nil {
			writeError(w, req, err)
			return
		}

		httpx.WriteJSON(w, status, ViewResponse{Route: name, Params: pathParams(req), Data: data})
	}
}

// pathParams collects the wildcards of the mux pattern that matched req.
func pathParams(req *http.Request) map[string]string {
	var params map[string]string
	for _, seg := range strings.Split(req.Pattern, "/") {
		if !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") {
			continue
		}
		name := strings.TrimSuffix(seg[1:len(seg)-1], "...")
		if name == "$" {
			continue
		}
		if params == nil {
			params = make(map[string]string)
		}
		params[name] = req.PathValue(name)
	}
	return params
}

func writeRedirect(w http.ResponseWriter, req *http.Request, path string) {
	w.Header().Set("Location", path)
	httpx.WriteJSON(w, http.StatusSeeOther, RedirectResponse{Redirect: path})
}

func writeLoading(w http.ResponseWriter) {
	w.Header().Set("Retry-After", strconv.Itoa(1))
	httpx.WriteMessage(w, http.StatusServiceUnavailable, "session_loading", "Restoring your session.")
}

func emptyView(*http.Request) (any, error) { return nil, nil }
