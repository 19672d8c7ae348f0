package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/marmos91/antnode-manager/cmd/antnodectl/cmdutil"
	"github.com/marmos91/antnode-manager/internal/logger"
	"github.com/marmos91/antnode-manager/pkg/audit"
	"github.com/marmos91/antnode-manager/pkg/config"
	"github.com/marmos91/antnode-manager/pkg/lifecycle"
	"github.com/marmos91/antnode-manager/pkg/provision"
	"github.com/marmos91/antnode-manager/pkg/registry"
	"github.com/marmos91/antnode-manager/pkg/rpcclient"
	"github.com/marmos91/antnode-manager/pkg/supervisor"
	"github.com/marmos91/antnode-manager/pkg/supervisor/systemd"
)

// deps bundles the objects every mutating subcommand needs. antnodectl
// opens the same registry document and host supervisor antnoded uses —
// there is no daemon RPC between the two. The registry's locks are
// in-process only: each save replaces the JSON document atomically
// (temp file plus rename), so no reader sees a torn file, but when both
// processes save, the last save wins.
type deps struct {
	cfg        *config.Config
	registry   *registry.Registry
	supervisor supervisor.Supervisor
	provision  *provision.Provisioner
	lifecycle  *lifecycle.Controller
	audit      *audit.Store
}

// loadDeps loads configuration and wires the fleet-management objects
// a subcommand needs. Call close() when done to release the audit
// store's database handle.
func loadDeps() (*deps, func(), error) {
	cfg, err := config.Load(cmdutil.Flags.ConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	reg, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load registry: %w", err)
	}

	sup := systemd.New()

	var auditStore *audit.Store
	if cfg.Audit.Enabled {
		auditStore, err = audit.Open(audit.Config{Path: cfg.Audit.Path})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open audit store: %w", err)
		}
	}

	ctrl := lifecycle.New(reg, sup, rpcclient.NewHTTPClient,
		lifecycle.WithPostStartDelay(int(cfg.Provisioning.PostStartProbeDelay.Milliseconds())))

	d := &deps{
		cfg:        cfg,
		registry:   reg,
		supervisor: sup,
		provision:  provision.New(reg, sup),
		lifecycle:  ctrl,
		audit:      auditStore,
	}

	return d, func() {
		if auditStore != nil {
			_ = auditStore.Close()
		}
	}, nil
}

// verbosity maps --verbose to a lifecycle.VerbosityLevel.
func (d *deps) verbosity() lifecycle.VerbosityLevel {
	if cmdutil.IsVerbose() {
		return lifecycle.VerbosityVerbose
	}
	return lifecycle.VerbosityNormal
}

// record appends one row to the audit store (a no-op on a nil store).
// Detail holds the error message on failure, empty on success. Each
// invocation gets a fresh correlation id shared between the audit row
// and the operation's log lines.
func (d *deps) record(ctx context.Context, serviceName, kind string, opErr error) {
	corrID := uuid.NewString()
	outcome := "ok"
	detail := ""
	if opErr != nil {
		outcome = "error"
		detail = opErr.Error()
	}
	logger.Debug("lifecycle operation completed",
		logger.Operation(kind),
		logger.ServiceName(serviceName),
		logger.CorrelationID(corrID),
		"outcome", outcome,
	)
	_ = d.audit.Record(ctx, audit.Operation{
		CorrelationID: corrID,
		ServiceName:   serviceName,
		Kind:          kind,
		Outcome:       outcome,
		Detail:        detail,
		CreatedAt:     timeNowMillis(),
	})
}
