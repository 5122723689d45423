/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package site

import (
	"fmt"
	"sort"
	"strings"
)

// Site identifies one of the two mutually exclusive observation sites.
// The pair is closed: scheduling constraints are written pairwise and
// adding a third site would require generalising them.
type Site int

const (
	North Site = iota // label "GN"
	South             // label "GS"
)

// All returns both sites in canonical order, North before South.
func All() []Site {
	return []Site{North, South}
}

// String returns the stable site label used in assignment identifiers
// and logs.
func (s Site) String() string {
	switch s {
	case North:
		return "GN"
	case South:
		return "GS"
	default:
		return "Unknown"
	}
}

// MarshalJSON encodes the site as its label.
func (s Site) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON decodes a site label.
func (s *Site) UnmarshalJSON(data []byte) error {
	label := strings.Trim(string(data), `"`)
	parsed, err := Parse(label)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Parse maps a site label back to its Site value.
func Parse(label string) (Site, error) {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "GN":
		return North, nil
	case "GS":
		return South, nil
	}
	return 0, fmt.Errorf("unknown site label %q", label)
}

// Set is a set of sites.
type Set map[Site]struct{}

// NewSet builds a set from the given sites.
func NewSet(sites ...Site) Set {
	set := make(Set, len(sites))
	for _, s := range sites {
		set[s] = struct{}{}
	}
	return set
}

// Contains reports whether s is a member.
func (set Set) Contains(s Site) bool {
	_, ok := set[s]
	return ok
}

// Len returns the number of members.
func (set Set) Len() int {
	return len(set)
}

// Sorted returns the members in canonical order.
func (set Set) Sorted() []Site {
	out := make([]Site, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// String renders the set as space-separated labels, e.g. "GN GS".
func (set Set) String() string {
	labels := make([]string, 0, len(set))
	for _, s := range set.Sorted() {
		labels = append(labels, s.String())
	}
	return strings.Join(labels, " ")
}
