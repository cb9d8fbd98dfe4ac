package models

import "time"

// Display formats used in the output artifact.
const (
	displayDate     = "02-01-2006"
	displayDateTime = "02-01-2006 15:04:05"
)

// dicomDateLayout is the DICOM DA value representation (e.g. "19800101").
const dicomDateLayout = "20060102"

// NormalizeDate parses a DICOM date value and renders it as "DD-MM-YYYY".
// If the value does not match the 8-digit layout, a 2-digit-year form is
// attempted; the result is kept only when it resolves to a year after 1900.
// Anything else degrades to an empty string.
func NormalizeDate(value string) string {
	if t, err := time.Parse(dicomDateLayout, value); err == nil {
		return t.Format(displayDate)
	}
	return normalizeAmbiguousDate(value)
}

// normalizeAmbiguousDate handles dates recorded without a century
// (e.g. "800101" meaning 1980-01-01).
func normalizeAmbiguousDate(value string) string {
	t, err := time.Parse("060102", value)
	if err != nil {
		return ""
	}
	if t.Year() <= 1900 {
		return ""
	}
	return t.Format(displayDate)
}

// NormalizeDateLayout parses a date with an explicit layout and renders it as
// "DD-MM-YYYY". Unparsable values degrade to an empty string. A fractional
// second in the input is accepted even when the layout omits it.
func NormalizeDateLayout(value, layout string) string {
	t, err := time.Parse(layout, value)
	if err != nil {
		return ""
	}
	return t.Format(displayDate)
}

// FormatModified renders a file modification timestamp as
// "DD-MM-YYYY HH:MM:SS".
func FormatModified(t time.Time) string {
	return t.Format(displayDateTime)
}
