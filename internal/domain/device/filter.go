package device

import "strings"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Filter represents filtering options for listing devices
type Filter struct {
	Type    string
	Status  string
	Address string
	Search  string
	Page    int
	Limit   int
}

// Normalize fills in default pagination.
func (f *Filter) Normalize() {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
}

func (f *Filter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// Matches evaluates the filter predicates (not pagination) against a device.
// Exact matches on type, status and address are ANDed with the search term,
// which is a case-insensitive substring of name, type or address.
func (f *Filter) Matches(d *Device) bool {
	if f == nil {
		return true
	}
	if f.Type != "" && d.Type != f.Type {
		return false
	}
	if f.Status != "" && string(d.Status) != f.Status {
		return false
	}
	if f.Address != "" && d.Location.Address != f.Address {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		return strings.Contains(strings.ToLower(d.Name), needle) ||
			strings.Contains(strings.ToLower(d.Type), needle) ||
			strings.Contains(strings.ToLower(d.Location.Address), needle)
	}
	return true
}
