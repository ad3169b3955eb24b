package domain

import (
	"fmt"
	"strings"
)

// legacyPositions maps a 6/8-column source index to its canonical field.
var legacyPositions = [...]int{
	0: FieldAdmin2,
	1: FieldCountryRegion,
	2: FieldLastUpdate,
	3: FieldConfirmed,
	4: FieldDeaths,
	5: FieldRecovered,
	6: FieldLat,
	7: FieldLong,
}

// Normalize maps a raw row from a file with cols columns onto the full
// 15-field canonical layout, with date in front.
func Normalize(raw []string, cols int, date string) (Row, error) {
	if cols > MaxSourceColumns {
		return nil, fmt.Errorf("%w: %d columns exceeds %d", ErrUnsupportedLayout, cols, MaxSourceColumns)
	}
	schema, err := SchemaFor(cols)
	if err != nil {
		return nil, err
	}
	if err := checkWidth(schema, raw); err != nil {
		return nil, err
	}

	out := make(Row, FullWidth)
	out[FieldDate] = date

	if schema.Modern() {
		// 12-column files end at Combined_Key; the trailing two stay empty.
		copy(out[FieldFIPS:], raw)
		return out, nil
	}

	for i := 0; i < schema.Columns() && i < len(raw); i++ {
		out[legacyPositions[i]] = raw[i]
	}
	return out, nil
}

// RowMapper converts one raw data record into an output Row.
type RowMapper func(raw []string, date string) (Row, error)

// OutputSchema is a canonical output layout. Bind inspects a source file's
// header once and returns the mapper for that file's rows.
type OutputSchema interface {
	Name() string
	Header() Row
	Bind(header []string) (RowMapper, error)
}

// FullSchema emits the 15-field canonical row.
type FullSchema struct{}

func (FullSchema) Name() string { return "full" }

func (FullSchema) Header() Row { return FullHeader() }

func (FullSchema) Bind(header []string) (RowMapper, error) {
	cols := len(header)
	if cols > MaxSourceColumns {
		return nil, fmt.Errorf("%w: %d columns exceeds %d", ErrUnsupportedLayout, cols, MaxSourceColumns)
	}
	if _, err := SchemaFor(cols); err != nil {
		return nil, err
	}
	return func(raw []string, date string) (Row, error) {
		return Normalize(raw, cols, date)
	}, nil
}

// MinimalSchema emits Date, Country_Region, Confirmed, Deaths, Recovered and
// Active, located by header name instead of fixed offsets.
type MinimalSchema struct{}

func (MinimalSchema) Name() string { return "minimal" }

func (MinimalSchema) Header() Row { return MinimalHeader() }

func (MinimalSchema) Bind(header []string) (RowMapper, error) {
	if len(header) > MaxSourceColumns {
		return nil, fmt.Errorf("%w: %d columns exceeds %d", ErrUnsupportedLayout, len(header), MaxSourceColumns)
	}
	schema, err := SchemaFor(len(header))
	if err != nil {
		return nil, err
	}
	idx := headerIndex(header)

	countryName := "Country/Region"
	newFormat := schema.Modern()
	if newFormat {
		countryName = "Country_Region"
	}

	cols := make([]int, 0, 5)
	for _, name := range []string{countryName, "Confirmed", "Deaths", "Recovered"} {
		i, ok := idx[name]
		if !ok {
			return nil, fmt.Errorf("%w: header has no %q column", ErrUnsupportedLayout, name)
		}
		cols = append(cols, i)
	}
	active := -1
	if newFormat {
		i, ok := idx["Active"]
		if !ok {
			return nil, fmt.Errorf("%w: header has no %q column", ErrUnsupportedLayout, "Active")
		}
		active = i
	}

	return func(raw []string, date string) (Row, error) {
		if err := checkWidth(schema, raw); err != nil {
			return nil, err
		}
		out := make(Row, 0, len(MinimalHeader()))
		out = append(out, date)
		for _, i := range cols {
			out = append(out, field(raw, i))
		}
		out = append(out, field(raw, active))
		return out, nil
	}, nil
}

// checkWidth rejects a row that would land in the wrong columns of its
// file's layout.
func checkWidth(schema Schema, raw []string) error {
	if !schema.Accepts(len(raw)) {
		return fmt.Errorf("%w: %d-field row in a %d-column file", ErrUnsupportedLayout, len(raw), schema.Columns())
	}
	return nil
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	return idx
}

// SchemaByName returns the output schema called name ("full" or "minimal").
func SchemaByName(name string) (OutputSchema, error) {
	switch name {
	case "", "full":
		return FullSchema{}, nil
	case "minimal":
		return MinimalSchema{}, nil
	default:
		return nil, fmt.Errorf("unknown output schema %q", name)
	}
}
