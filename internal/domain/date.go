package domain

import (
	"fmt"
	"path"
	"strings"
)

// NormalizeDate rewrites a date token such as "3/4/2022" or "3-4-2022" to
// MM-DD-YYYY. It only pads month and day; no calendar validation is done.
func NormalizeDate(token string) (string, error) {
	var parts []string
	switch {
	case strings.Contains(token, "/"):
		parts = strings.Split(token, "/")
	case strings.Contains(token, "-"):
		parts = strings.Split(token, "-")
	default:
		return "", fmt.Errorf("%w: %q has no separator", ErrDateFormat, token)
	}
	if len(parts) < 3 {
		return "", fmt.Errorf("%w: %q needs month, day and year", ErrDateFormat, token)
	}

	parts[0] = zeroPad(parts[0])
	parts[1] = zeroPad(parts[1])
	return strings.Join(parts, "-"), nil
}

func zeroPad(s string) string {
	if len(s) >= 2 {
		return s
	}
	return strings.Repeat("0", 2-len(s)) + s
}

// TrimExt strips the extension from a filename: "03-01-2022.csv" -> "03-01-2022".
func TrimExt(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}
