// Command validate performs integrity checks on an extractor output file:
// header shape, row width, date format, and chronological order.
//
// Usage:
//
//	go run ./cmd/validate -file cases.csv
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/chinjsg/csv-extractor/internal/domain"
)

const dateLayout = "01-02-2006"

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	file := flag.String("file", "cases.csv", "extractor output file to validate")
	flag.Parse()

	os.Exit(run(*file, os.Stdout))
}

func run(path string, out io.Writer) int {
	records, err := loadCSV(path)
	if err != nil {
		fmt.Fprintf(out, "FATAL: %v\n", err)
		return 1
	}

	fmt.Fprintln(out, "=== Output Integrity Validation ===")
	fmt.Fprintf(out, "file: %s (%d data rows)\n\n", path, max(len(records)-1, 0))

	phases := validate(records)

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = "FAIL"
			allPassed = false
		}
		fmt.Fprintf(out, "[%s] %s\n", status, p.name)
		for _, e := range p.errors {
			fmt.Fprintf(out, "       %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	return 0
}

func loadCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}

func validate(records [][]string) []*phase {
	header := &phase{name: "header matches a canonical schema"}
	width := &phase{name: "every row has the header's field count"}
	dates := &phase{name: "every date is MM-DD-YYYY"}
	order := &phase{name: "dates are non-decreasing"}
	phases := []*phase{header, width, dates, order}

	if len(records) == 0 {
		header.errorf("file is empty")
		return phases
	}

	cols := len(records[0])
	if !slices.Equal(records[0], []string(domain.FullHeader())) && !slices.Equal(records[0], []string(domain.MinimalHeader())) {
		header.errorf("unexpected header %v", records[0])
	}

	var prev time.Time
	for i, rec := range records[1:] {
		line := i + 2
		if len(rec) != cols {
			width.errorf("line %d: %d fields, want %d", line, len(rec), cols)
		}
		if len(rec) == 0 {
			continue
		}
		d, err := time.Parse(dateLayout, rec[domain.FieldDate])
		if err != nil {
			dates.errorf("line %d: date %q", line, rec[domain.FieldDate])
			continue
		}
		if d.Before(prev) {
			order.errorf("line %d: %s comes after %s", line, rec[domain.FieldDate], prev.Format(dateLayout))
		}
		prev = d
	}
	return phases
}
