package domain

import "errors"

var (
	// ErrUnsupportedLayout reports a row or header whose column count is not
	// one of the known historical layouts.
	ErrUnsupportedLayout = errors.New("unsupported column layout")

	// ErrDateFormat reports a date token that cannot be normalized.
	ErrDateFormat = errors.New("invalid date format")

	// ErrResumeState reports a local output file whose last recorded date
	// does not correspond to any upstream file.
	ErrResumeState = errors.New("output file out of sync with upstream files")
)
