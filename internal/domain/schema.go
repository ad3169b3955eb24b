package domain

import "fmt"

// Schema identifies one of the historical upstream column layouts. Its value
// is the layout's column count.
type Schema int

const (
	SchemaV6  Schema = 6
	SchemaV8  Schema = 8
	SchemaV12 Schema = 12
	SchemaV14 Schema = 14
)

// MaxSourceColumns is the widest upstream layout understood.
const MaxSourceColumns = int(SchemaV14)

// SchemaFor returns the layout with the given column count.
func SchemaFor(cols int) (Schema, error) {
	switch s := Schema(cols); s {
	case SchemaV6, SchemaV8, SchemaV12, SchemaV14:
		return s, nil
	default:
		return 0, fmt.Errorf("%w: %d columns", ErrUnsupportedLayout, cols)
	}
}

// Columns returns the number of fields in a row of this layout.
func (s Schema) Columns() int { return int(s) }

// Modern reports whether the layout carries FIPS through Combined_Key in
// canonical order.
func (s Schema) Modern() bool { return s >= SchemaV12 }

// Accepts reports whether a row of width fields lines up with this layout.
// 14-column files may carry 12-column rows missing the two trailing ratios.
func (s Schema) Accepts(width int) bool {
	return width == s.Columns() || (s == SchemaV14 && width == SchemaV12.Columns())
}

// CountryIndex returns the position of the country/region field.
func (s Schema) CountryIndex() int {
	if s.Modern() {
		return 3
	}
	return 1
}

// Country returns the country/region field of row.
func (s Schema) Country(row []string) string {
	return field(row, s.CountryIndex())
}

// Province returns the province/state field of row, which sits just before
// the country.
func (s Schema) Province(row []string) (string, bool) {
	i := s.CountryIndex() - 1
	if i < 0 || i >= len(row) {
		return "", false
	}
	return row[i], true
}

// County returns the county (Admin2) field of row. Older layouts have no
// county column and report false.
func (s Schema) County(row []string) (string, bool) {
	i := s.CountryIndex() - 2
	if i < 0 || i >= len(row) {
		return "", false
	}
	return row[i], true
}

func (s Schema) String() string {
	return fmt.Sprintf("v%d", int(s))
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
