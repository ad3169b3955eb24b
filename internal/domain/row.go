package domain

import "time"

// Row is one output record. Full rows always have 15 fields, minimal rows 6.
type Row []string

// Canonical field positions within a full Row.
const (
	FieldDate = iota
	FieldFIPS
	FieldAdmin2
	FieldProvinceState
	FieldCountryRegion
	FieldLastUpdate
	FieldLat
	FieldLong
	FieldConfirmed
	FieldDeaths
	FieldRecovered
	FieldActive
	FieldCombinedKey
	FieldIncidenceRate
	FieldCaseFatalityRatio

	FullWidth
)

// FullHeader returns the header row for the full canonical schema.
func FullHeader() Row {
	return Row{
		"Date", "FIPS", "Admin2", "Province_State", "Country_Region", "Last_Update",
		"Lat", "Long_", "Confirmed", "Deaths", "Recovered", "Active",
		"Combined_Key", "Incidence_Rate", "Case-Fatality_Ratio",
	}
}

// MinimalHeader returns the header row for the minimal schema.
func MinimalHeader() Row {
	return Row{"Date", "Country_Region", "Confirmed", "Deaths", "Recovered", "Active"}
}

// DirEntry is one item of an upstream directory listing.
type DirEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// SourceFile is a parsed upstream daily report.
type SourceFile struct {
	Name      string     // e.g. "03-01-2022.csv"
	Date      string     // canonical MM-DD-YYYY taken from Name
	Header    []string   // first record of the file
	Records   [][]string // data records, header excluded
	FetchedAt time.Time
}

// NewSourceFile builds a SourceFile from a filename and its parsed records,
// splitting off the header and stamping the fetch time.
func NewSourceFile(name string, records [][]string) (SourceFile, error) {
	date, err := NormalizeDate(TrimExt(name))
	if err != nil {
		return SourceFile{}, err
	}
	f := SourceFile{Name: name, Date: date, FetchedAt: clock.Now()}
	if len(records) > 0 {
		f.Header = records[0]
		f.Records = records[1:]
	}
	return f, nil
}

// Batch is the set of rows produced from one source file.
type Batch struct {
	Source    string
	Scanned   int // data records examined
	Date      string
	Header    Row
	Rows      []Row
	FetchedAt time.Time
}
