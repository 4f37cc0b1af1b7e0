package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines one console scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Setup configures the core before the first step.
	Setup Setup `yaml:"setup,omitempty"`

	// Backend scripts the replies of each route.
	Backend []Route `yaml:"backend,omitempty"`

	// Flow lists the operations to drive, in order.
	Flow []Step `yaml:"flow"`

	// Assertions validate the trace, final state and journal.
	Assertions []Assertion `yaml:"assertions"`
}

// Setup is the core's initial configuration.
type Setup struct {
	Token      string `yaml:"token,omitempty"`
	Section    string `yaml:"section,omitempty"`
	Production bool   `yaml:"production,omitempty"`
	// Base overrides the versioned API root.
	Base string `yaml:"base,omitempty"`
}

// Route scripts one "METHOD path?query" route.
// Replies are consumed in order; the last one repeats.
type Route struct {
	Method  string      `yaml:"method"`
	Path    string      `yaml:"path"`
	Replies []ReplySpec `yaml:"replies"`
}

// ReplySpec is one scripted reply.
type ReplySpec struct {
	Status     int    `yaml:"status,omitempty"`
	Message    string `yaml:"message,omitempty"`
	Data       any    `yaml:"data,omitempty"`
	Raw        string `yaml:"raw,omitempty"`
	HTTPStatus int    `yaml:"http_status,omitempty"`
	Drop       bool   `yaml:"drop,omitempty"`
}

// Step is one operation on the core.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	Section  string         `yaml:"section,omitempty"`
	Refs     []string       `yaml:"refs,omitempty"`
	Document string         `yaml:"document,omitempty"`
	Config   map[string]any `yaml:"config,omitempty"`
	Status   string         `yaml:"status,omitempty"`
	Now      bool           `yaml:"now,omitempty"`

	// Expect checks the operation's return. If nil, errors are not checked.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies how a step must return.
type ExpectClause struct {
	// Error is true when the operation must fail.
	Error bool `yaml:"error"`
}

// Step operations.
const (
	OpStart         = "start"
	OpLoadConfig    = "load_config"
	OpLoadResources = "load_resources"
	OpUpdate        = "update"
	OpDelete        = "delete"
	OpSaveConfig    = "save_config"
	OpChangeStatus  = "change_status"
	OpSystemLogs    = "system_logs"
	OpPing          = "ping"
)

var knownOps = map[string]bool{
	OpStart: true, OpLoadConfig: true, OpLoadResources: true, OpUpdate: true,
	OpDelete: true, OpSaveConfig: true, OpChangeStatus: true, OpSystemLogs: true,
	OpPing: true,
}

// Assertion validates the trace, final state or journal.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Messages is the exact notification list (notifications).
	Messages []string `yaml:"messages,omitempty"`

	// Message is a notification substring (notification_contains).
	Message string `yaml:"message,omitempty"`

	// Method and Path identify a route (request_count).
	Method string `yaml:"method,omitempty"`
	Path   string `yaml:"path,omitempty"`

	// Count is the expected number of requests (request_count).
	Count int `yaml:"count,omitempty"`

	// Requests is the expected order, each "METHOD path" (request_order).
	Requests []string `yaml:"requests,omitempty"`

	// Where selects one journal entry by field (journal).
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected field values (final_state, journal).
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertNotifications        = "notifications"
	AssertNotificationContains = "notification_contains"
	AssertRequestCount         = "request_count"
	AssertRequestOrder         = "request_order"
	AssertFinalState           = "final_state"
	AssertJournal              = "journal"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// FindScenarios lists the .yaml and .yml files of dir, sorted.
// A non-empty filter is a glob matched against the base name without extension.
func FindScenarios(dir, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenarios directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if filter != "" {
			ok, err := filepath.Match(filter, strings.TrimSuffix(name, ext))
			if err != nil {
				return nil, fmt.Errorf("invalid filter %q: %w", filter, err)
			}
			if !ok {
				continue
			}
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, r := range s.Backend {
		if r.Method == "" || r.Path == "" {
			return fmt.Errorf("backend[%d]: method and path are required", i)
		}
		if len(r.Replies) == 0 {
			return fmt.Errorf("backend[%d]: replies list is required and must be non-empty", i)
		}
	}

	for i, step := range s.Flow {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step *Step) error {
	if step.Op == "" {
		return fmt.Errorf("flow[%d]: op is required", index)
	}
	if !knownOps[step.Op] {
		return fmt.Errorf("flow[%d]: unknown op %q", index, step.Op)
	}

	switch step.Op {
	case OpLoadResources:
		if step.Section == "" {
			return fmt.Errorf("flow[%d]: section is required for %s", index, step.Op)
		}
	case OpDelete:
		if step.Section == "" || len(step.Refs) == 0 {
			return fmt.Errorf("flow[%d]: section and refs are required for %s", index, step.Op)
		}
	case OpSaveConfig:
		if step.Config == nil {
			return fmt.Errorf("flow[%d]: config is required for %s", index, step.Op)
		}
	case OpChangeStatus:
		if step.Status == "" {
			return fmt.Errorf("flow[%d]: status is required for %s", index, step.Op)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertNotifications:
		if a.Messages == nil {
			return fmt.Errorf("assertions[%d]: messages is required for notifications (use [] for none)", index)
		}
	case AssertNotificationContains:
		if a.Message == "" {
			return fmt.Errorf("assertions[%d]: message is required for notification_contains", index)
		}
	case AssertRequestCount:
		if a.Method == "" || a.Path == "" {
			return fmt.Errorf("assertions[%d]: method and path are required for request_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for request_count", index)
		}
	case AssertRequestOrder:
		if len(a.Requests) == 0 {
			return fmt.Errorf("assertions[%d]: requests list is required for request_order", index)
		}
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertJournal:
		if len(a.Where) == 0 || len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: where and expect are required for journal", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
