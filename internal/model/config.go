package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ReadOnlyProvider is the data-source provider that forbids every write operation.
const ReadOnlyProvider = "files_data_provider"

// Config is the backend's singleton configuration document.
//
// The whole document is retained so fields the console does not interpret
// survive a load/save round trip. Typed accessors read the parts the console
// depends on.
type Config struct {
	doc map[string]any
}

// DefaultConfig returns the document assumed before the first successful load.
func DefaultConfig() Config {
	return Config{doc: map[string]any{
		"spec": map[string]any{
			"restService":     map[string]any{},
			"securityContext": map[string]any{},
		},
	}}
}

// ParseConfig decodes a configuration document. Numbers are preserved exactly.
func ParseConfig(data []byte) (Config, error) {
	var c Config
	if err := c.UnmarshalJSON(data); err != nil {
		return Config{}, err
	}
	return c, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Config) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if doc == nil {
		return fmt.Errorf("parse config: document is null")
	}
	c.doc = doc
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c Config) MarshalJSON() ([]byte, error) {
	if c.doc == nil {
		return DefaultConfig().MarshalJSON()
	}
	return json.Marshal(c.doc)
}

// Document returns the decoded document. Callers must not mutate it.
func (c Config) Document() map[string]any {
	if c.doc == nil {
		return DefaultConfig().doc
	}
	return c.doc
}

// Spec returns the spec object, or nil if absent.
func (c Config) Spec() map[string]any {
	spec, _ := c.Document()["spec"].(map[string]any)
	return spec
}

// RestService returns spec.restService, or nil if absent.
func (c Config) RestService() map[string]any {
	v, _ := c.Spec()["restService"].(map[string]any)
	return v
}

// SecurityContext returns spec.securityContext, or nil if absent.
func (c Config) SecurityContext() map[string]any {
	v, _ := c.Spec()["securityContext"].(map[string]any)
	return v
}

// Provider returns spec.dataSource.provider, or "" if the document has none.
func (c Config) Provider() string {
	ds, _ := c.Spec()["dataSource"].(map[string]any)
	p, _ := ds["provider"].(string)
	return p
}

// ReadOnly reports whether the configured provider forbids writes.
func (c Config) ReadOnly() bool {
	return c.Provider() == ReadOnlyProvider
}
