package statusapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/antnode-manager/pkg/audit"
	"github.com/marmos91/antnode-manager/pkg/registry"
	"github.com/marmos91/antnode-manager/pkg/supervisor"
	"github.com/marmos91/antnode-manager/pkg/types"
)

type handler struct {
	reg   *registry.Registry
	sup   supervisor.Supervisor
	audit *audit.Store
}

const defaultRecentAuditLimit = 100

// nodeView is one NodeEntry plus a read-only reconciliation result:
// does the registry's recorded status still match what the supervisor
// observes on the host. It is never written back to the registry.
type nodeView struct {
	types.NodeEntry
	Drift bool `json:"drift"`
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, OKResponse(map[string]string{"status": "up"}))
}

func (h *handler) listNodes(w http.ResponseWriter, r *http.Request) {
	entries := h.reg.Nodes()
	reconcile := r.URL.Query().Get("reconcile") == "true"

	views := make([]nodeView, 0, len(entries))
	for _, e := range entries {
		views = append(views, h.view(r.Context(), e, reconcile))
	}
	JSON(w, http.StatusOK, OKResponse(views))
}

func (h *handler) getNode(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	entry, ok := h.reg.Find(name)
	if !ok {
		JSON(w, http.StatusNotFound, ErrorResponse("service not found: "+name))
		return
	}

	reconcile := r.URL.Query().Get("reconcile") == "true"
	JSON(w, http.StatusOK, OKResponse(h.view(r.Context(), entry, reconcile)))
}

// view applies the read-only reconciliation pass: for a Running entry,
// probe the pid and report drift without touching the registry.
func (h *handler) view(ctx context.Context, e types.NodeEntry, reconcile bool) nodeView {
	v := nodeView{NodeEntry: e}
	if !reconcile || e.Status != types.StatusRunning || h.sup == nil {
		return v
	}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := h.sup.GetProcessPID(probeCtx, e.AntnodePath); err != nil {
		v.Drift = true
	}
	return v
}

func (h *handler) recentAudit(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		JSON(w, http.StatusNotFound, ErrorResponse("audit logging is disabled"))
		return
	}

	limit := defaultRecentAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	ops, err := h.audit.Recent(r.Context(), limit)
	if err != nil {
		JSON(w, http.StatusInternalServerError, ErrorResponse(err.Error()))
		return
	}
	JSON(w, http.StatusOK, OKResponse(ops))
}

func (h *handler) auditForService(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		JSON(w, http.StatusNotFound, ErrorResponse("audit logging is disabled"))
		return
	}

	name := chi.URLParam(r, "name")
	ops, err := h.audit.ListByService(r.Context(), name)
	if err != nil {
		JSON(w, http.StatusInternalServerError, ErrorResponse(err.Error()))
		return
	}
	JSON(w, http.StatusOK, OKResponse(ops))
}
