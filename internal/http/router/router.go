// Package router assembles the HTTP surface of the service: middleware,
// the toy routes, /metrics and the /kill maintenance endpoint.
package router

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aanand-mishra/toys-api/internal/http/handlers/toy"
	"github.com/aanand-mishra/toys-api/internal/http/middleware"
	"github.com/aanand-mishra/toys-api/internal/storage"
)

// Options tune the router. The zero value is usable.
type Options struct {
	// Reply selects the POST/PUT body shape (see toy.Reply).
	Reply toy.Reply

	// Registry receives the HTTP metrics and backs /metrics.
	// A fresh registry is created when nil.
	Registry *prometheus.Registry

	// Exit terminates the process for GET /kill. Defaults to os.Exit.
	Exit func(code int)
}

// New wires the routes:
//
//	POST   /toys        → create a new toy
//	GET    /toys        → list (and filter) toys
//	GET    /toys/{id}   → get one toy
//	PUT    /toys/{id}   → replace a toy
//	DELETE /toys/{id}   → delete a toy
//	GET    /kill        → halt the process immediately (exit code 1)
//	GET    /metrics     → Prometheus metrics
func New(store storage.Storage, opts Options) http.Handler {
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.Exit == nil {
		opts.Exit = os.Exit
	}

	metrics := middleware.NewMetrics(opts.Registry)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept"},
	}))

	r.Group(func(r chi.Router) {
		r.Use(metrics.Handler)

		r.Post("/toys", toy.New(store, opts.Reply))
		r.Get("/toys", toy.GetList(store))
		r.Get("/toys/{id}", toy.GetByID(store))
		r.Put("/toys/{id}", toy.Update(store, opts.Reply))
		r.Delete("/toys/{id}", toy.Delete(store))
	})

	r.Get("/kill", kill(opts.Exit))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))

	return r
}

// kill stops the process on the spot: no response, no graceful shutdown,
// no deferred cleanup. It exists so container restart policies can be
// exercised against a live instance.
func kill(exit func(int)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Warn("kill requested, exiting", slog.String("remote_addr", r.RemoteAddr))
		exit(1)
	}
}
