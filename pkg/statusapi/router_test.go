package statusapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/antnode-manager/pkg/audit"
	"github.com/marmos91/antnode-manager/pkg/registry"
	"github.com/marmos91/antnode-manager/pkg/supervisor/mock"
	"github.com/marmos91/antnode-manager/pkg/types"
)

func TestHealthz(t *testing.T) {
	reg := registry.New("")
	router := NewRouter(reg, mock.New(), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListNodesReturnsRegistryEntries(t *testing.T) {
	reg := registry.New("")
	require.NoError(t, reg.PushNode(types.NodeEntry{ServiceName: "antnode1", Number: 1, Status: types.StatusAdded}))

	router := NewRouter(reg, mock.New(), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/nodes", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestGetNodeNotFound(t *testing.T) {
	reg := registry.New("")
	router := NewRouter(reg, mock.New(), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/nodes/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetNodeReconcileReportsDrift(t *testing.T) {
	reg := registry.New("")
	require.NoError(t, reg.PushNode(types.NodeEntry{
		ServiceName: "antnode1",
		Number:      1,
		Status:      types.StatusRunning,
		AntnodePath: "/opt/antnode/antnode1/antnode",
	}))

	sup := mock.New() // no pid registered for this path: GetProcessPID will miss
	router := NewRouter(reg, sup, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/nodes/antnode1?reconcile=true", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data nodeView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Drift)

	// still unchanged in the registry — reconciliation never mutates
	entry, ok := reg.Find("antnode1")
	require.True(t, ok)
	assert.Equal(t, types.StatusRunning, entry.Status)
}

func TestAuditDisabledReturnsNotFound(t *testing.T) {
	reg := registry.New("")
	router := NewRouter(reg, mock.New(), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/audit", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuditForServiceReturnsRecordedOperations(t *testing.T) {
	store, err := audit.Open(audit.Config{Path: filepath.Join(t.TempDir(), "audit.db")})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Record(context.Background(), audit.Operation{
		ServiceName: "antnode1",
		Kind:        "start",
		Outcome:     "ok",
		CreatedAt:   1,
	}))

	reg := registry.New("")
	router := NewRouter(reg, mock.New(), nil, store)

	req := httptest.NewRequest(http.MethodGet, "/audit/antnode1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []audit.Operation `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "start", resp.Data[0].Kind)
}
