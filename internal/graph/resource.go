package graph

import (
	"fmt"
	"strings"
)

// Resource identifies a graph: a host ship and a graph name, written
// "~ship/name".
type Resource struct {
	Ship string `json:"ship" yaml:"ship"`
	Name string `json:"name" yaml:"name"`
}

// ParseResource parses "~ship/name". The "/ship/" prefix used by resource
// paths and a missing "~" are both accepted.
func ParseResource(s string) (Resource, error) {
	s = strings.TrimPrefix(s, "/ship/")
	s = strings.TrimPrefix(s, "/")
	ship, name, ok := strings.Cut(s, "/")
	if !ok {
		return Resource{}, fmt.Errorf("invalid resource %q: want ~ship/name", s)
	}
	r := Resource{Ship: ship, Name: name}.normalize()
	if err := r.Validate(); err != nil {
		return Resource{}, err
	}
	return r, nil
}

// MustParseResource is ParseResource for literals. Panics on error.
func MustParseResource(s string) Resource {
	r, err := ParseResource(s)
	if err != nil {
		panic(err)
	}
	return r
}

// String returns "~ship/name".
func (r Resource) String() string {
	return r.Ship + "/" + r.Name
}

// Validate checks that both parts are present and contain no separators.
func (r Resource) Validate() error {
	ship := strings.TrimPrefix(r.Ship, "~")
	if ship == "" || strings.ContainsAny(ship, "/~ ") {
		return fmt.Errorf("invalid resource ship %q", r.Ship)
	}
	if r.Name == "" || strings.ContainsAny(r.Name, "/ ") {
		return fmt.Errorf("invalid resource name %q", r.Name)
	}
	return nil
}

// normalize gives the ship its "~" sigil.
func (r Resource) normalize() Resource {
	if r.Ship != "" && !strings.HasPrefix(r.Ship, "~") {
		r.Ship = "~" + r.Ship
	}
	return r
}

// compareResources orders by ship then name.
func compareResources(a, b Resource) int {
	if c := strings.Compare(a.Ship, b.Ship); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}
