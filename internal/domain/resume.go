package domain

import (
	"fmt"
	"path"
	"sort"
	"time"
)

const filenameDateLayout = "01-02-2006"

// CSVFilenames keeps the csv files of a directory listing and returns their
// names in chronological order of the date embedded in each name.
func CSVFilenames(entries []DirEntry) ([]string, error) {
	type dated struct {
		name string
		date time.Time
	}

	files := make([]dated, 0, len(entries))
	for _, e := range entries {
		if e.Type != "file" || path.Ext(e.Name) != ".csv" {
			continue
		}
		d, err := time.Parse(filenameDateLayout, TrimExt(e.Name))
		if err != nil {
			return nil, fmt.Errorf("%w: filename %q", ErrDateFormat, e.Name)
		}
		files = append(files, dated{name: e.Name, date: d})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].date.Before(files[j].date)
	})

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.name
	}
	return names, nil
}

// OutputState is what an existing output file records about earlier runs.
type OutputState struct {
	Header   bool   // the file starts with a header record
	LastDate string // date of the final data row, empty when there is none
}

// Ingested reports whether any data row has been written.
func (s OutputState) Ingested() bool {
	return s.LastDate != ""
}

// ResumePlan lists the upstream files not yet present in the output.
type ResumePlan struct {
	LastDate string
	Pending  []string
}

// UpToDate reports whether there is nothing left to ingest.
func (p ResumePlan) UpToDate() bool {
	return len(p.Pending) == 0
}

// PlanResume finds the file matching lastDate in the sorted filenames and
// returns every file after it.
func PlanResume(lastDate string, sorted []string) (ResumePlan, error) {
	date, err := NormalizeDate(lastDate)
	if err != nil {
		return ResumePlan{}, fmt.Errorf("%w: last recorded date: %w", ErrResumeState, err)
	}

	for i, name := range sorted {
		if TrimExt(name) == date {
			pending := make([]string, len(sorted)-i-1)
			copy(pending, sorted[i+1:])
			return ResumePlan{LastDate: date, Pending: pending}, nil
		}
	}
	return ResumePlan{}, fmt.Errorf("%w: no upstream file for %s", ErrResumeState, date)
}
