package models

import (
	"regexp"
	"strings"
	"time"
)

// CanonicalDateLayout is the only date format sent to the CMS.
const CanonicalDateLayout = "2006-01-02"

var dateShapes = []struct {
	re     *regexp.Regexp
	layout string
}{
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), "2006-01-02"},
	{regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`), "02-01-2006"},
	{regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`), "02/01/2006"},
}

// ConvertDate normalizes YYYY-MM-DD, DD-MM-YYYY and DD/MM/YYYY to
// YYYY-MM-DD. Any other shape, an empty string or an impossible calendar
// date yields ok=false.
func ConvertDate(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	for _, shape := range dateShapes {
		if !shape.re.MatchString(value) {
			continue
		}
		t, err := time.Parse(shape.layout, value)
		if err != nil {
			return "", false
		}
		return t.Format(CanonicalDateLayout), true
	}
	return "", false
}
