package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/graphstore/internal/eventfile"
	"github.com/roach88/graphstore/internal/graph"
)

// Scenario is a sequence of graph events and the assertions that must hold
// once they have all been reduced.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Events are dispatched in order.
	Events []eventfile.Spec `yaml:"events"`

	// Assertions validate the final state and the run counters.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates the final state or a run counter.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Resource is "~ship/name" (graph_*, node_*).
	Resource string `yaml:"resource,omitempty"`

	// Index is a node path such as /1/2 (node_present, node_absent).
	Index string `yaml:"index,omitempty"`

	// Keys is the exact expected key set, in any order (keys_equal).
	Keys []string `yaml:"keys,omitempty"`

	// Count is used by node_count, notifications and rejected.
	Count int `yaml:"count,omitempty"`

	// Shown is the expected sidebar flag (sidebar_shown).
	Shown *bool `yaml:"shown,omitempty"`

	// Digest is the expected state digest (digest).
	Digest string `yaml:"digest,omitempty"`
}

// Assertion type constants.
const (
	AssertKeysEqual     = "keys_equal"
	AssertGraphPresent  = "graph_present"
	AssertGraphAbsent   = "graph_absent"
	AssertNodePresent   = "node_present"
	AssertNodeAbsent    = "node_absent"
	AssertNodeCount     = "node_count"
	AssertSidebarShown  = "sidebar_shown"
	AssertNotifications = "notifications"
	AssertRejected      = "rejected"
	AssertDigest        = "digest"
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
	// Reject unknown fields (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Events) == 0 {
		return fmt.Errorf("events list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	// An empty kind is legal on the wire (it is an unknown event) but never
	// intended in a scenario.
	for i, step := range s.Events {
		if step.Kind == "" {
			return fmt.Errorf("events[%d]: kind is required", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	needResource := func() error {
		if a.Resource == "" {
			return fmt.Errorf("assertions[%d]: resource is required for %s", index, a.Type)
		}
		if _, err := graph.ParseResource(a.Resource); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		return nil
	}
	needIndex := func() error {
		if a.Index == "" {
			return fmt.Errorf("assertions[%d]: index is required for %s", index, a.Type)
		}
		if _, err := graph.ParseIndex(a.Index); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		return nil
	}

	switch a.Type {
	case AssertKeysEqual:
		for _, k := range a.Keys {
			if _, err := graph.ParseResource(k); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	case AssertGraphPresent, AssertGraphAbsent:
		return needResource()
	case AssertNodePresent, AssertNodeAbsent:
		if err := needResource(); err != nil {
			return err
		}
		return needIndex()
	case AssertNodeCount:
		if err := needResource(); err != nil {
			return err
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertSidebarShown:
		if a.Shown == nil {
			return fmt.Errorf("assertions[%d]: shown is required for %s", index, a.Type)
		}
	case AssertNotifications, AssertRejected:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertDigest:
		if a.Digest == "" {
			return fmt.Errorf("assertions[%d]: digest is required for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
