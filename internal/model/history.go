package model

import "strings"

// MaxHistory is the number of recent searches kept
const MaxHistory = 5

// SearchHistory is an ordered list of city names, most recent first
type SearchHistory []string

// NormalizeCity trims surrounding whitespace from a city name
func NormalizeCity(city string) string {
	return strings.TrimSpace(city)
}

// Contains reports whether city is present, ignoring case
func (h SearchHistory) Contains(city string) bool {
	for _, c := range h {
		if strings.EqualFold(c, city) {
			return true
		}
	}
	return false
}

// Without returns a copy of h with every case-insensitive match of city removed
func (h SearchHistory) Without(city string) SearchHistory {
	out := make(SearchHistory, 0, len(h))
	for _, c := range h {
		if !strings.EqualFold(c, city) {
			out = append(out, c)
		}
	}
	return out
}

// Clone returns an independent copy
func (h SearchHistory) Clone() SearchHistory {
	out := make(SearchHistory, len(h))
	copy(out, h)
	return out
}
