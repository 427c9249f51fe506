// Package timecode parses and formats the clock-style time strings used by
// chapter files and the session API, e.g. "1:02:03.450".
package timecode

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidTimecode is returned when a string does not match a supported
// clock format.
var ErrInvalidTimecode = errors.New("invalid timecode")

var (
	// strictPattern matches the canonical form H:MM:SS with an optional
	// fractional part of one to three digits.
	strictPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})(?:\.(\d{1,3}))?$`)

	// clockPattern additionally accepts the short M:SS form found in pasted
	// chapter lists.
	clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?(?:\.(\d{1,3}))?$`)
)

// Parse converts a canonical H:MM:SS[.fff] string into a duration.
// Fractional digits are decimal fractions of a second, so "0:00:01.4" is
// one second and 400 milliseconds. Field ranges are not checked beyond the
// digit counts of the format.
func Parse(s string) (time.Duration, error) {
	m := strictPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimecode, s)
	}

	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	millis := fractionMillis(m[4])

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

// Format renders a duration as H:MM:SS.cc with two fractional digits,
// the table display form. Negative durations render as zero.
func Format(d time.Duration) string {
	h, m, secs := split(d)
	return fmt.Sprintf("%d:%02d:%05.2f", h, m, secs)
}

// FormatMillis renders a duration as H:MM:SS.mmm with three fractional
// digits, the status-bar and chapter-file form.
func FormatMillis(d time.Duration) string {
	h, m, secs := split(d)
	return fmt.Sprintf("%d:%02d:%06.3f", h, m, secs)
}

// Normalize converts any accepted clock form (M:SS, MM:SS, H:MM:SS, each
// with an optional fraction) into the canonical H:MM:SS.mmm form.
func Normalize(s string) (string, error) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidTimecode, s)
	}

	var hours, minutes, seconds int
	if m[3] == "" {
		// Two components: minutes and seconds.
		minutes, _ = strconv.Atoi(m[1])
		seconds, _ = strconv.Atoi(m[2])
	} else {
		hours, _ = strconv.Atoi(m[1])
		minutes, _ = strconv.Atoi(m[2])
		seconds, _ = strconv.Atoi(m[3])
	}

	return fmt.Sprintf("%d:%02d:%02d.%03d", hours, minutes, seconds, fractionMillis(m[4])), nil
}

// fractionMillis widens 1-3 fraction digits to milliseconds: "4" is 400ms,
// "45" is 450ms, "456" is 456ms.
func fractionMillis(frac string) int {
	if frac == "" {
		return 0
	}
	for len(frac) < 3 {
		frac += "0"
	}
	ms, _ := strconv.Atoi(frac)
	return ms
}

func split(d time.Duration) (hours, minutes int, seconds float64) {
	if d < 0 {
		d = 0
	}
	hours = int(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes = int(d / time.Minute)
	d -= time.Duration(minutes) * time.Minute
	return hours, minutes, d.Seconds()
}
