package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/graphstore/internal/canon"
	"github.com/roach88/graphstore/internal/graph"
)

// Snapshot renders a run as a canonical-JSON-ready tree: scenario name,
// trace, notification count and final state snapshot.
func Snapshot(scenarioName string, result *Result) (map[string]any, error) {
	trace := make([]any, len(result.Trace))
	for i, event := range result.Trace {
		trace[i] = map[string]any{
			"seq":    event.Seq,
			"id":     event.ID,
			"kind":   event.Kind,
			"status": event.Status,
		}
	}

	state, err := graph.Snapshot(result.Final)
	if err != nil {
		return nil, err
	}

	out := map[string]any{
		"scenario_name": scenarioName,
		"trace":         trace,
		"notifications": int64(result.Notifications),
		"state":         state,
	}
	if len(result.Rejected) > 0 {
		rejected := make([]any, len(result.Rejected))
		for i, r := range result.Rejected {
			rejected[i] = r
		}
		out["rejected"] = rejected
	}
	return out, nil
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snap, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}
	data, err := canon.Marshal(snap)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
