// Package validate holds the pure input predicates used by the dialogue flows.
package validate

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"
)

const dateLayout = "02.01.2006"

var (
	datePattern      = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`)
	nameTokenPattern = regexp.MustCompile(`^[\p{L}-]+$`)
)

var (
	// ErrDateFormat is returned for input that is not a DD.MM.YYYY calendar date.
	ErrDateFormat = errors.New("date must be DD.MM.YYYY")
	// ErrDateFuture is returned when the date is after today.
	ErrDateFuture = errors.New("date is in the future")
	// ErrDateTooOld is returned when the year is before 1900.
	ErrDateTooOld = errors.New("date is before 1900")
)

const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
	minYear        = 1900
)

// ParseBirthDate parses text as a birth date relative to today's local calendar date.
func ParseBirthDate(text string, today time.Time) (time.Time, error) {
	if !datePattern.MatchString(text) {
		return time.Time{}, ErrDateFormat
	}
	d, err := time.ParseInLocation(dateLayout, text, time.Local)
	if err != nil {
		return time.Time{}, ErrDateFormat
	}
	if d.Year() < minYear {
		return time.Time{}, ErrDateTooOld
	}
	y, m, day := today.In(time.Local).Date()
	if d.After(time.Date(y, m, day, 0, 0, 0, 0, time.Local)) {
		return time.Time{}, ErrDateFuture
	}
	return d, nil
}

// DateAt reports whether text is an acceptable birth date as of today.
func DateAt(text string, today time.Time) bool {
	_, err := ParseBirthDate(text, today)
	return err == nil
}

// Date reports whether text is an acceptable birth date as of now.
func Date(text string) bool {
	return DateAt(text, time.Now())
}

// Digits strips every non-digit rune.
func Digits(text string) string {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Phone accepts 10 to 15 digits once formatting characters are removed.
func Phone(text string) bool {
	n := len(Digits(text))
	return n >= minPhoneDigits && n <= maxPhoneDigits
}

// FullName requires at least two whitespace separated tokens of letters or hyphens.
func FullName(text string) bool {
	tokens := strings.FieldsFunc(text, unicode.IsSpace)
	if len(tokens) < 2 {
		return false
	}
	for _, tok := range tokens {
		if !nameTokenPattern.MatchString(tok) {
			return false
		}
	}
	return true
}
