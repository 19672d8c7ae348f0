package registry

import (
	"encoding/json"
	"fmt"

	"github.com/marmos91/antnode-manager/pkg/types"
)

// currentSchemaVersion is the schema_version this package writes on
// every save. See DESIGN.md's "schema_version migration" entry for
// the read-path decision: older versions load as-is, newer versions
// are rejected.
const currentSchemaVersion = 1

// CurrentSchemaVersion returns the schema_version this package writes
// on every save, for callers (the provisioner) that stamp it onto new
// entries directly.
func CurrentSchemaVersion() int { return currentSchemaVersion }

// document is the on-disk shape of the registry: the exact JSON
// structure serialised to the registry path. Unknown top-level keys
// are preserved in extra and re-emitted on the next save; unknown
// NodeEntry fields are allowed to drop, since encoding/json already
// does that for any field not named in types.NodeEntry's tags.
type document struct {
	SchemaVersion        int                `json:"schema_version"`
	Nodes                []types.NodeEntry  `json:"nodes"`
	Daemon               *types.DaemonEntry `json:"daemon"`
	EnvironmentVariables []types.EnvVar     `json:"environment_variables"`
	NatStatus            types.NatStatus    `json:"nat_status"`
	BootstrapPeers       []string           `json:"bootstrap_peers"`

	extra map[string]json.RawMessage
}

// knownDocumentFields lists every field name MarshalJSON/UnmarshalJSON
// own directly, so arbitrary extra keys found on disk can be
// distinguished from the ones this type already understands.
var knownDocumentFields = map[string]struct{}{
	"schema_version":        {},
	"nodes":                 {},
	"daemon":                {},
	"environment_variables": {},
	"nat_status":            {},
	"bootstrap_peers":       {},
}

func (d document) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.extra)+6)
	for k, v := range d.extra {
		out[k] = v
	}

	marshal := func(key string, v any) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal registry field %q: %w", key, err)
		}
		out[key] = raw
		return nil
	}

	if err := marshal("schema_version", d.SchemaVersion); err != nil {
		return nil, err
	}
	if err := marshal("nodes", d.Nodes); err != nil {
		return nil, err
	}
	if err := marshal("daemon", d.Daemon); err != nil {
		return nil, err
	}
	if err := marshal("environment_variables", d.EnvironmentVariables); err != nil {
		return nil, err
	}
	if err := marshal("nat_status", d.NatStatus); err != nil {
		return nil, err
	}
	if err := marshal("bootstrap_peers", d.BootstrapPeers); err != nil {
		return nil, err
	}

	return json.Marshal(out)
}

func (d *document) UnmarshalJSON(data []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode registry document: %w", err)
	}

	if v, ok := raw["schema_version"]; ok {
		if err := json.Unmarshal(v, &d.SchemaVersion); err != nil {
			return fmt.Errorf("decode schema_version: %w", err)
		}
	}
	if v, ok := raw["nodes"]; ok {
		if err := json.Unmarshal(v, &d.Nodes); err != nil {
			return fmt.Errorf("decode nodes: %w", err)
		}
	}
	if v, ok := raw["daemon"]; ok && string(v) != "null" {
		d.Daemon = &types.DaemonEntry{}
		if err := json.Unmarshal(v, d.Daemon); err != nil {
			return fmt.Errorf("decode daemon: %w", err)
		}
	}
	if v, ok := raw["environment_variables"]; ok && string(v) != "null" {
		if err := json.Unmarshal(v, &d.EnvironmentVariables); err != nil {
			return fmt.Errorf("decode environment_variables: %w", err)
		}
	}
	if v, ok := raw["nat_status"]; ok {
		if err := json.Unmarshal(v, &d.NatStatus); err != nil {
			return fmt.Errorf("decode nat_status: %w", err)
		}
	}
	if v, ok := raw["bootstrap_peers"]; ok && string(v) != "null" {
		if err := json.Unmarshal(v, &d.BootstrapPeers); err != nil {
			return fmt.Errorf("decode bootstrap_peers: %w", err)
		}
	}

	d.extra = make(map[string]json.RawMessage)
	for k, v := range raw {
		if _, known := knownDocumentFields[k]; !known {
			d.extra[k] = v
		}
	}

	return nil
}
