package query

import (
	"net/url"
	"strconv"
	"strings"
)

// Filter query keys accepted on list routes.
const (
	KeyType        = "type"
	KeyDifficulty  = "difficulty"
	KeySearch      = "search"
	KeyMinDuration = "minDuration"
	KeyMaxDuration = "maxDuration"
)

// Keys lists the filter keys in a stable order.
var Keys = []string{KeyType, KeyDifficulty, KeySearch, KeyMinDuration, KeyMaxDuration}

// Kind names the single filter a list request resolves to.
type Kind int

const (
	KindAll Kind = iota
	KindType
	KindDifficulty
	KindDuration
	KindSearch
)

func (k Kind) String() string {
	switch k {
	case KindType:
		return "type"
	case KindDifficulty:
		return "difficulty"
	case KindDuration:
		return "duration"
	case KindSearch:
		return "search"
	default:
		return "all"
	}
}

// Filter holds the optional list filters. Duration bounds are nil when absent
// or not integral.
type Filter struct {
	Type        string
	Difficulty  string
	Search      string
	MinDuration *int
	MaxDuration *int
}

// Parse reads a Filter from query values.
func Parse(values url.Values) Filter {
	return Filter{
		Type:        strings.TrimSpace(values.Get(KeyType)),
		Difficulty:  strings.TrimSpace(values.Get(KeyDifficulty)),
		Search:      strings.TrimSpace(values.Get(KeySearch)),
		MinDuration: parseInt(values.Get(KeyMinDuration)),
		MaxDuration: parseInt(values.Get(KeyMaxDuration)),
	}
}

// Kind resolves the filter by priority: type, difficulty, duration range
// (both bounds required), search, then all.
func (f Filter) Kind() Kind {
	switch {
	case f.Type != "":
		return KindType
	case f.Difficulty != "":
		return KindDifficulty
	case f.MinDuration != nil && f.MaxDuration != nil:
		return KindDuration
	case f.Search != "":
		return KindSearch
	default:
		return KindAll
	}
}

func parseInt(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}
