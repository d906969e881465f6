package comments

import "strings"

// Filter is a case-insensitive keyword match with exclusion terms. Terms are
// folded once at construction and otherwise used as given; only empty
// exclusions are dropped. Input surfaces trim through ParseTerms.
type Filter struct {
	keyword    string
	exclusions []string
}

func NewFilter(keyword string, exclusions []string) Filter {
	f := Filter{keyword: strings.ToLower(keyword)}
	for _, ex := range exclusions {
		if ex != "" {
			f.exclusions = append(f.exclusions, strings.ToLower(ex))
		}
	}
	return f
}

// Match reports whether text contains the keyword and none of the exclusions.
func (f Filter) Match(text string) bool {
	if text == "" || f.keyword == "" {
		return false
	}
	folded := strings.ToLower(text)
	if !strings.Contains(folded, f.keyword) {
		return false
	}
	for _, ex := range f.exclusions {
		if strings.Contains(folded, ex) {
			return false
		}
	}
	return true
}

func (f Filter) Keyword() string { return f.keyword }

// Matches is the one-shot form of NewFilter(keyword, exclusions).Match(text).
func Matches(text, keyword string, exclusions []string) bool {
	return NewFilter(keyword, exclusions).Match(text)
}

// ParseTerms splits a comma separated list of terms, dropping blanks.
func ParseTerms(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
