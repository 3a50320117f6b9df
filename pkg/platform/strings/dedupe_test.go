package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"trims and drops blanks", []string{"  Vol ", "Incendie", "Vol", "", "  "}, []string{"Vol", "Incendie"}},
		{"case-insensitive, first spelling wins", []string{"bris de glace", "Bris de Glace", "VOL"}, []string{"bris de glace", "VOL"}},
		{"all blank", []string{" ", ""}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DedupeAndTrim(tt.in))
		})
	}
	assert.Nil(t, DedupeAndTrim(nil))
}
