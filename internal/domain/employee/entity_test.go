package employee

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCardUID(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"04 a1 b2 c3", "04A1B2C3"},
		{"04A1B2C3", "04A1B2C3"},
		{"04:a1:b2:c3", "04A1B2C3"},
		{"  de-ad-BE-EF  ", "DEADBEEF"},
		{"", ""},
		{"zz--!!", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizeCardUID(c.input), "input %q", c.input)
	}
}

func TestNormalizeCardUID_EquivalentForms(t *testing.T) {
	// Different renderings of the same physical card must normalize to
	// the same lookup key.
	forms := []string{"04 a1 b2 c3", "04A1B2C3", "04a1b2c3", "04-A1-B2-C3"}
	want := NormalizeCardUID(forms[0])
	for _, f := range forms[1:] {
		assert.Equal(t, want, NormalizeCardUID(f), "form %q", f)
	}
}
