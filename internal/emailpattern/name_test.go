package emailpattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitName(t *testing.T) {
	tests := []struct {
		in    string
		first string
		last  string
	}{
		{"Jane Doe", "jane", "doe"},
		{"  JANE   DOE  ", "jane", "doe"},
		{"José Álvarez", "jose", "alvarez"},
		{"Jürgen Großmann", "jurgen", "grossmann"},
		{"Mary Ann O'Brien", "mary", "obrien"},
		{"Jean-Pierre Dupont", "jeanpierre", "dupont"},
		{"Søren Kierkegaard", "soren", "kierkegaard"},
		{"Anna 2 Smith", "anna", "smith"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n, err := SplitName(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.first, n.First)
			assert.Equal(t, tt.last, n.Last)
		})
	}
}

func TestSplitName_Unsplittable(t *testing.T) {
	for _, in := range []string{"", "Madonna", "  ", "Cher 123", "李 王"} {
		_, err := SplitName(in)
		assert.ErrorIs(t, err, ErrUnsplittableName, "input %q", in)
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "francois", Fold("François"))
	assert.Equal(t, "lukasz", Fold("Łukasz"))
}
