package stats

import "github.com/pkg/errors"

// Category selects which participation figure drives rankings.
type Category int

const (
	Combined Category = iota
	Active
	Inactive
)

var ErrUnknownCategory = errors.New("unknown category")

func ParseCategory(s string) (Category, error) {
	switch s {
	case "", "combined":
		return Combined, nil
	case "active":
		return Active, nil
	case "inactive":
		return Inactive, nil
	}
	return Combined, ErrUnknownCategory
}

func (c Category) String() string {
	switch c {
	case Active:
		return "active"
	case Inactive:
		return "inactive"
	default:
		return "combined"
	}
}

// Of picks the category's figure out of `p`.
func (c Category) Of(p Percentages) int {
	switch c {
	case Active:
		return p.Active
	case Inactive:
		return p.Inactive
	default:
		return p.Combined
	}
}

// Noun is how the category is named in sentences, e.g. "active participation".
func (c Category) Noun() string {
	switch c {
	case Active:
		return "active participation"
	case Inactive:
		return "inactive participation"
	default:
		return "participation"
	}
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
