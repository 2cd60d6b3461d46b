package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/graphstore/internal/graph"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s\n", event.Seq, event.Kind, event.Status)
	}

	return buf.String()
}

// evaluate checks one assertion against a finished run. Assertions were
// validated at load time, so parse failures here mean a hand-built scenario.
func evaluate(r *Result, a Assertion) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Trace: r.Trace}
	}
	s := r.Final

	switch a.Type {
	case AssertKeysEqual:
		want := make([]string, 0, len(a.Keys))
		for _, k := range a.Keys {
			res, err := graph.ParseResource(k)
			if err != nil {
				return err
			}
			want = append(want, res.String())
		}
		slices.Sort(want)
		got := keyNames(s)
		slices.Sort(got)
		if !slices.Equal(want, got) {
			return fail(fmt.Sprintf("keys %v", want), fmt.Sprintf("keys %v", got))
		}

	case AssertGraphPresent, AssertGraphAbsent:
		res, err := graph.ParseResource(a.Resource)
		if err != nil {
			return err
		}
		present := s.HasKey(res)
		if a.Type == AssertGraphPresent && !present {
			return fail("graph "+res.String()+" present", fmt.Sprintf("absent (keys %v)", keyNames(s)))
		}
		if a.Type == AssertGraphAbsent && present {
			return fail("graph "+res.String()+" absent", "present")
		}

	case AssertNodePresent, AssertNodeAbsent:
		res, err := graph.ParseResource(a.Resource)
		if err != nil {
			return err
		}
		idx, err := graph.ParseIndex(a.Index)
		if err != nil {
			return err
		}
		present := s.Graph(res).Lookup(idx) != nil
		where := fmt.Sprintf("node %s in %s", idx, res)
		if a.Type == AssertNodePresent && !present {
			return fail(where+" present", "absent")
		}
		if a.Type == AssertNodeAbsent && present {
			return fail(where+" absent", "present")
		}

	case AssertNodeCount:
		res, err := graph.ParseResource(a.Resource)
		if err != nil {
			return err
		}
		if got := s.Graph(res).Size(); got != a.Count {
			return fail(fmt.Sprintf("%d nodes in %s", a.Count, res), fmt.Sprintf("%d nodes", got))
		}

	case AssertSidebarShown:
		if a.Shown == nil {
			return fmt.Errorf("shown is required")
		}
		if s.SidebarShown != *a.Shown {
			return fail(fmt.Sprintf("sidebar shown=%t", *a.Shown), fmt.Sprintf("shown=%t", s.SidebarShown))
		}

	case AssertNotifications:
		if r.Notifications != a.Count {
			return fail(fmt.Sprintf("%d notifications", a.Count), fmt.Sprintf("%d notifications", r.Notifications))
		}

	case AssertRejected:
		if len(r.Rejected) != a.Count {
			return fail(fmt.Sprintf("%d rejected events", a.Count), fmt.Sprintf("%d rejected: %v", len(r.Rejected), r.Rejected))
		}

	case AssertDigest:
		if r.Digest != a.Digest {
			return fail("digest "+a.Digest, "digest "+r.Digest)
		}

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}

	return nil
}

func keyNames(s graph.State) []string {
	keys := s.SortedKeys()
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, k.String())
	}
	return names
}
