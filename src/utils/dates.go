package utils

import (
	"fmt"
	"strings"
	"time"
)

// Canonical session-date form used for storage and display.
const CanonicalDateLayout = "02.01.2006"

// looseDateLayout accepts single-digit day/month as the source
// occasionally renders them.
const looseDateLayout = "2.1.2006"

// -----------------------------------------------------------------------------

// ParseSessionDate parses a DD.MM.YYYY session date. All range and
// ordering decisions go through this; canonical strings are never
// compared lexically (wrong across month and year boundaries).
func ParseSessionDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(CanonicalDateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(looseDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized session date %q", s)
	}
	return t, nil
}

// -----------------------------------------------------------------------------

// FormatSessionDate renders a date in the canonical DD.MM.YYYY form.
func FormatSessionDate(t time.Time) string {
	return t.Format(CanonicalDateLayout)
}
