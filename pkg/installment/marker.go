package installment

import (
	"regexp"
	"strconv"
)

// markerPattern is the installment marker: exactly two digits, a slash,
// two digits, in parentheses. Single-digit forms like (3/12) are not
// recognized.
var markerPattern = regexp.MustCompile(`\((\d{2})/(\d{2})\)`)

// Installment is the parsed (parcel, total) pair from a notes marker.
type Installment struct {
	Parcel      int    // 1-based position within the series
	ParcelTotal int    // series length
	Matched     string // the literal marker substring, e.g. "(03/12)"
}

// Final reports whether this parcel is the last of its series.
func (i Installment) Final() bool {
	return i.Parcel == i.ParcelTotal
}

// Remaining returns the number of installments from this parcel to the end
// of the series, inclusive.
func (i Installment) Remaining() int {
	return i.ParcelTotal - i.Parcel + 1
}

// ParseMarker extracts the first installment marker from a notes string.
// It reports ok=false when no marker is present.
func ParseMarker(notes string) (Installment, bool) {
	m := markerPattern.FindStringSubmatch(notes)
	if m == nil {
		return Installment{}, false
	}

	// The pattern guarantees two-digit numeric groups.
	parcel, _ := strconv.Atoi(m[1])
	total, _ := strconv.Atoi(m[2])

	return Installment{
		Parcel:      parcel,
		ParcelTotal: total,
		Matched:     m[0],
	}, true
}

// HasMarker reports whether a nullable notes field contains an installment
// marker. Used to pre-filter candidate transactions.
func HasMarker(notes *string) bool {
	if notes == nil {
		return false
	}
	return markerPattern.MatchString(*notes)
}
