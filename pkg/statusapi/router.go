package statusapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/antnode-manager/internal/logger"
	"github.com/marmos91/antnode-manager/pkg/audit"
	"github.com/marmos91/antnode-manager/pkg/metrics"
	"github.com/marmos91/antnode-manager/pkg/registry"
	"github.com/marmos91/antnode-manager/pkg/supervisor"
)

// NewRouter builds the chi router serving antnoded's read-only status
// API. reg is read directly (never mutated); sup is used only for the
// reconciliation pid probe behind GET /nodes, never to
// install/start/stop anything. store may be nil when auditing is
// disabled, in which case /audit routes report 404.
func NewRouter(reg *registry.Registry, sup supervisor.Supervisor, coll *metrics.Collector, store *audit.Store) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	h := &handler{reg: reg, sup: sup, audit: store}

	r.Get("/healthz", h.healthz)
	r.Get("/nodes", h.listNodes)
	r.Get("/nodes/{name}", h.getNode)
	r.Get("/audit", h.recentAudit)
	r.Get("/audit/{name}", h.auditForService)

	if coll != nil {
		r.Handle("/metrics", coll.Handler())
	}

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.Info("status api request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		)
	})
}
