package domain

import "sort"

// TargetSpec is the plain data form of a target set:
// country -> province/state -> counties. An empty inner map matches the
// whole country and an empty county list matches the whole subdivision.
type TargetSpec map[string]map[string][]string

// DefaultTargetSpec returns the jurisdictions tracked out of the box:
// Pima County, Arizona and all of Singapore.
func DefaultTargetSpec() TargetSpec {
	return TargetSpec{
		"US":        {"Arizona": {"Pima"}},
		"Singapore": {},
	}
}

// Targets decides whether a raw upstream row belongs to a tracked
// jurisdiction. It is immutable once built.
type Targets struct {
	countries map[string]countryMatcher
}

type countryMatcher struct {
	subdivisions map[string]subdivisionMatcher // empty matches every row
}

type subdivisionMatcher struct {
	counties map[string]struct{} // empty matches every row
}

// NewTargets compiles spec into a matcher tree.
func NewTargets(spec TargetSpec) Targets {
	t := Targets{countries: make(map[string]countryMatcher, len(spec))}
	for country, subs := range spec {
		cm := countryMatcher{subdivisions: make(map[string]subdivisionMatcher, len(subs))}
		for sub, counties := range subs {
			sm := subdivisionMatcher{counties: make(map[string]struct{}, len(counties))}
			for _, c := range counties {
				sm.counties[c] = struct{}{}
			}
			cm.subdivisions[sub] = sm
		}
		t.countries[country] = cm
	}
	return t
}

// DefaultTargets compiles DefaultTargetSpec.
func DefaultTargets() Targets {
	return NewTargets(DefaultTargetSpec())
}

// Match reports whether row belongs to a target jurisdiction. Empty rows
// never match. A row whose length is not a known layout is an error.
func (t Targets) Match(row []string) (bool, error) {
	if len(row) == 0 {
		return false, nil
	}
	schema, err := SchemaFor(len(row))
	if err != nil {
		return false, err
	}
	return t.matchSchema(schema, row), nil
}

func (t Targets) matchSchema(schema Schema, row []string) bool {
	cm, ok := t.countries[schema.Country(row)]
	if !ok {
		return false
	}
	if len(cm.subdivisions) == 0 {
		return true
	}

	province, ok := schema.Province(row)
	if !ok {
		return false
	}
	sm, ok := cm.subdivisions[province]
	if !ok {
		return false
	}
	if len(sm.counties) == 0 {
		return true
	}

	county, ok := schema.County(row)
	if !ok {
		return false
	}
	_, ok = sm.counties[county]
	return ok
}

// Countries returns the configured country names in sorted order.
func (t Targets) Countries() []string {
	out := make([]string, 0, len(t.countries))
	for c := range t.countries {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
