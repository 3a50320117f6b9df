package models

import (
	"leadgate/internal/security/sanitize"
	strs "leadgate/pkg/platform/strings"
)

// Scrubber sanitizes form fields in place and remembers which originals
// the detector flagged.
type Scrubber struct {
	flagged []string
}

func (s *Scrubber) apply(rule sanitize.Rule, field string, v *string) {
	if *v == "" {
		return
	}
	res := rule.Check(*v)
	if res.Suspicious() {
		s.flagged = append(s.flagged, field)
	}
	*v = res.Value
}

// Text scrubs free text and select labels.
func (s *Scrubber) Text(field string, v *string) {
	s.apply(sanitize.FormText, field, v)
}

func (s *Scrubber) Email(field string, v *string) {
	s.apply(sanitize.Email, field, v)
}

func (s *Scrubber) Phone(field string, v *string) {
	s.apply(sanitize.Phone, field, v)
}

// Texts scrubs a multi-select, dropping entries that become empty and
// repeated selections.
func (s *Scrubber) Texts(field string, vs *[]string) {
	if len(*vs) == 0 {
		return
	}
	out := (*vs)[:0]
	for _, v := range *vs {
		s.Text(field, &v)
		if v != "" {
			out = append(out, v)
		}
	}
	*vs = strs.DedupeAndTrim(out)
}

// Flagged lists the fields whose original value looked hostile.
func (s *Scrubber) Flagged() []string {
	return s.flagged
}
