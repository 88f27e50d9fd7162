package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Auth     *AuthHandler
	Calendar *CalendarHandler
	// Authenticate guards the calendar routes, usually RequireToken.
	Authenticate func(http.Handler) http.Handler
	Middleware   []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			methodNotAllowed(w, http.MethodGet, http.MethodHead)
			return
		}
		newResponder(nil).writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.Auth != nil {
		mux.Handle("/register", only(http.MethodPost, cfg.Auth.Register))
		mux.Handle("/login", only(http.MethodPost, cfg.Auth.Login))
	}

	if cfg.Calendar != nil {
		guard := cfg.Authenticate
		if guard == nil {
			guard = func(next http.Handler) http.Handler { return next }
		}
		mux.Handle("/calendar", guard(only(http.MethodGet, cfg.Calendar.Calendar)))
		mux.Handle("/calendar.ics", guard(only(http.MethodGet, cfg.Calendar.Feed)))
		mux.Handle("/calendar/state", guard(only(http.MethodGet, cfg.Calendar.State)))
		mux.Handle("/calendar/tap", guard(only(http.MethodPost, cfg.Calendar.Tap)))
		mux.Handle("/calendar/book", guard(only(http.MethodPost, cfg.Calendar.Book)))
		mux.Handle("/calendar/cancel", guard(only(http.MethodPost, cfg.Calendar.Cancel)))
		mux.Handle("/calendar/close", guard(only(http.MethodPost, cfg.Calendar.Close)))
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}

func only(method string, fn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			methodNotAllowed(w, method)
			return
		}
		fn(w, r)
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
