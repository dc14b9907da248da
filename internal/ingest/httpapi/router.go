// Package httpapi exposes the notification pipeline and the local caches over
// HTTP for the UI layer and for push relays that post payloads directly.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"time"

	gh "github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"rmnotify/internal/localstore"
	"rmnotify/internal/notify"
	"rmnotify/internal/runtime/supervisor"
	"rmnotify/internal/session"
	logx "rmnotify/pkg/logx"
)

const maxBodyBytes = 1 << 20

// Sessions is the slice of session.TokenStore the API needs.
type Sessions interface {
	Current(ctx context.Context) (session.UserInfo, error)
	Clear() error
}

type Deps struct {
	Notify *notify.Service
	Store  *localstore.Handler
	// Sessions is optional; /v1/me answers 503 without it.
	Sessions Sessions
	// Health is optional and feeds GET /health.
	Health func() supervisor.Snapshot
	Now    func() time.Time
}

type Options struct {
	CORSOrigins []string
	Pprof       bool
}

type api struct {
	d   Deps
	log logx.Logger
}

// NewRouter builds the full handler chain: routes, request logging, panic
// recovery and optional CORS.
func NewRouter(d Deps, opts Options, log logx.Logger) http.Handler {
	if log.IsZero() {
		log = logx.Nop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	a := &api{d: d, log: log.With(logx.Component("httpapi"))}

	r := mux.NewRouter()
	r.HandleFunc("/health", a.health).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/push", a.push).Methods(http.MethodPost)
	v1.HandleFunc("/push/batch", a.pushBatch).Methods(http.MethodPost)
	v1.HandleFunc("/notifications", a.listNotifications).Methods(http.MethodGet)
	v1.HandleFunc("/notifications", a.clearNotifications).Methods(http.MethodDelete)
	v1.HandleFunc("/nodes", a.putNodes).Methods(http.MethodPut)
	v1.HandleFunc("/nodes", a.getNodes).Methods(http.MethodGet)
	v1.HandleFunc("/nodes", a.deleteNodes).Methods(http.MethodDelete)
	v1.HandleFunc("/node-groups", a.putGroups).Methods(http.MethodPut)
	v1.HandleFunc("/node-groups", a.getGroups).Methods(http.MethodGet)
	v1.HandleFunc("/node-groups", a.deleteGroups).Methods(http.MethodDelete)
	v1.HandleFunc("/logout", a.logout).Methods(http.MethodPost)
	v1.HandleFunc("/me", a.me).Methods(http.MethodGet)
	v1.HandleFunc("/charts/axis", a.axis).Methods(http.MethodGet)

	if opts.Pprof {
		r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		r.HandleFunc("/debug/pprof/profile", pprof.Profile)
		r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		r.HandleFunc("/debug/pprof/trace", pprof.Trace)
		r.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	var h http.Handler = loggingMiddleware(a.log)(r)
	h = gh.RecoveryHandler(gh.RecoveryLogger(recoveryLogger{a.log}), gh.PrintRecoveryStack(false))(h)
	if len(opts.CORSOrigins) > 0 {
		h = gh.CORS(
			gh.AllowedOrigins(opts.CORSOrigins),
			gh.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
			gh.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		)(h)
	}
	return h
}

func loggingMiddleware(log logx.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rw, r)
			log.Debug("http request",
				logx.String("method", r.Method),
				logx.String("path", r.URL.Path),
				logx.Int("status", rw.status),
				logx.Duration("took", time.Since(start)),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

type recoveryLogger struct{ log logx.Logger }

func (l recoveryLogger) Println(v ...any) {
	l.log.Error("http handler panic", logx.String("panic", fmt.Sprint(v...)))
}
