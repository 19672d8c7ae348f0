package types

import (
	"encoding/json"
	"fmt"
)

// EnvVar is one (key, value) pair applied to all services on install.
// It marshals as a two-element JSON array rather than an
// object, matching the registry document's [k,v] pair encoding.
type EnvVar struct {
	Key   string
	Value string
}

func (e EnvVar) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{e.Key, e.Value})
}

func (e *EnvVar) UnmarshalJSON(data []byte) error {
	var pair [2]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("env var must be a [key, value] pair: %w", err)
	}
	e.Key = pair[0]
	e.Value = pair[1]
	return nil
}
