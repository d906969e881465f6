package comments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		keyword    string
		exclusions []string
		want       bool
	}{
		{"plain hit", "great video", "great", nil, true},
		{"case folded", "GREAT Video", "gReAt", nil, true},
		{"keyword absent", "nice video", "great", nil, false},
		{"empty text", "", "great", nil, false},
		{"empty keyword", "great video", "", nil, false},
		{"exclusion present", "this is spam, great spam", "great", []string{"spam"}, false},
		{"exclusion case folded", "great SPAM", "great", []string{"Spam"}, false},
		{"exclusion absent", "great video", "great", []string{"spam"}, true},
		{"empty exclusion ignored", "great video", "great", []string{""}, true},
		{"padded exclusion kept as given", "spam, great", "great", []string{" spam"}, true},
		{"padded exclusion hits", "great spam", "great", []string{" spam"}, false},
		{"second exclusion hits", "great promo", "great", []string{"spam", "promo"}, false},
		{"substring match", "greatest ever", "great", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.text, tt.keyword, tt.exclusions))
		})
	}
}

func TestFilterReuse(t *testing.T) {
	f := NewFilter("Buy", []string{"NOT"})
	assert.Equal(t, "buy", f.Keyword())
	assert.True(t, f.Match("buy now"))
	assert.False(t, f.Match("do not buy"))
	assert.False(t, f.Match("sell"))
}

func TestParseTerms(t *testing.T) {
	assert.Equal(t, []string{"spam", "promo code"}, ParseTerms(" spam, ,promo code ,"))
	assert.Nil(t, ParseTerms(""))
}
