package domain

import (
	"net/url"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// SortField represents a record field to sort by
type SortField string

const (
	SortByID      SortField = "id"
	SortByName    SortField = "name"
	SortByUpdated SortField = "updated"
)

// SortOrder represents sort direction
type SortOrder int

const (
	SortAsc SortOrder = iota
	SortDesc
)

// Query filters and orders a record list.
// The zero Query keeps every record in ID order.
type Query struct {
	// Search fuzzily matches ID, name or email, case-insensitively
	Search string
	Field  SortField
	Order  SortOrder
}

// ParseSortField validates a sort field name; empty means SortByID
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return SortByID, nil
	case SortByID, SortByName, SortByUpdated:
		return f, nil
	default:
		return "", errors.Wrapf(ErrInvalidInput, "unknown sort field %q", s)
	}
}

// ParseQuery reads q, sort and order from URL query values
func ParseQuery(v url.Values) (Query, error) {
	field, err := ParseSortField(v.Get("sort"))
	if err != nil {
		return Query{}, err
	}
	q := Query{Search: strings.TrimSpace(v.Get("q")), Field: field}

	switch strings.ToLower(v.Get("order")) {
	case "", "asc":
	case "desc":
		q.Order = SortDesc
	default:
		return Query{}, errors.Wrapf(ErrInvalidInput, "unknown sort order %q", v.Get("order"))
	}
	return q, nil
}

// Values encodes q for a request URL, omitting defaults
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	if q.Field != "" && q.Field != SortByID {
		v.Set("sort", string(q.Field))
	}
	if q.Order == SortDesc {
		v.Set("order", "desc")
	}
	return v
}

// Matches returns true if r passes the search. The search characters must
// appear in order, so "grhp" matches "Grace Hopper".
func (q Query) Matches(r Record) bool {
	if q.Search == "" {
		return true
	}
	return fuzzy.MatchFold(q.Search, r.ID) ||
		fuzzy.MatchFold(q.Search, r.Name) ||
		fuzzy.MatchFold(q.Search, r.Email)
}

// Apply returns the matching records in order without modifying the input
func (q Query) Apply(records []Record) []Record {
	result := make([]Record, 0, len(records))
	for _, r := range records {
		if q.Matches(r) {
			result = append(result, r)
		}
	}

	less := q.less()
	sort.SliceStable(result, func(i, j int) bool {
		if q.Order == SortDesc {
			return less(result[j], result[i])
		}
		return less(result[i], result[j])
	})
	return result
}

func (q Query) less() func(a, b Record) bool {
	switch q.Field {
	case SortByName:
		return func(a, b Record) bool {
			an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
			if an != bn {
				return an < bn
			}
			return lessID(a.ID, b.ID)
		}
	case SortByUpdated:
		return func(a, b Record) bool {
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.Before(b.UpdatedAt)
			}
			return lessID(a.ID, b.ID)
		}
	default:
		return func(a, b Record) bool { return lessID(a.ID, b.ID) }
	}
}

// lessID orders numeric IDs numerically: "2" sorts before "10"
func lessID(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
