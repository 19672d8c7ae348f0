package audit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(Config{Path: filepath.Join(dir, "audit.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "audit.db")
	s, err := Open(Config{Path: path})
	require.NoError(t, err)
	defer s.Close()
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestRecordThenListByService(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Operation{ServiceName: "antnode1", Kind: "start", Outcome: "ok", CreatedAt: 100}))
	require.NoError(t, s.Record(ctx, Operation{ServiceName: "antnode1", Kind: "stop", Outcome: "ok", CreatedAt: 200}))
	require.NoError(t, s.Record(ctx, Operation{ServiceName: "antnode2", Kind: "start", Outcome: "error", Detail: "boom", CreatedAt: 150}))

	ops, err := s.ListByService(ctx, "antnode1")
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "stop", ops[0].Kind) // newest first
	assert.Equal(t, "start", ops[1].Kind)
}

func TestRecentAcrossServicesRespectsLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i, kind := range []string{"add", "start", "stop", "upgrade"} {
		require.NoError(t, s.Record(ctx, Operation{ServiceName: "antnode1", Kind: kind, Outcome: "ok", CreatedAt: int64(i)}))
	}

	ops, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "upgrade", ops[0].Kind)
	assert.Equal(t, "stop", ops[1].Kind)
}

func TestNilStoreIsANoOp(t *testing.T) {
	var s *Store
	assert.NoError(t, s.Record(context.Background(), Operation{ServiceName: "x"}))
	ops, err := s.ListByService(context.Background(), "x")
	assert.NoError(t, err)
	assert.Nil(t, ops)
	assert.NoError(t, s.Close())
}
