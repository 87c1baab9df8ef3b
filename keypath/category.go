package keypath

import (
	"fmt"

	"github.com/tnqbao/gau-media-storage/blob"
)

// CategoryRoot is the first segment of every key. The zero value is invalid.
type CategoryRoot struct {
	name string
}

var (
	Clients  = CategoryRoot{"clients"}
	Montages = CategoryRoot{"montages"}
	Orders   = CategoryRoot{"orders"}
	Tasks    = CategoryRoot{"tasks"}
	Partners = CategoryRoot{"partners"}
)

var categoryRoots = []CategoryRoot{Clients, Montages, Orders, Tasks, Partners}

func (c CategoryRoot) String() string { return c.name }

func (c CategoryRoot) IsValid() bool { return c.name != "" }

func (c CategoryRoot) MarshalText() ([]byte, error) {
	return []byte(c.name), nil
}

func (c *CategoryRoot) UnmarshalText(text []byte) error {
	parsed, err := ParseCategoryRoot(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Roots lists every category root in declaration order.
func Roots() []CategoryRoot {
	return append([]CategoryRoot(nil), categoryRoots...)
}

func ParseCategoryRoot(s string) (CategoryRoot, error) {
	for _, c := range categoryRoots {
		if c.name == s {
			return c, nil
		}
	}
	return CategoryRoot{}, blob.InvalidInput("parse_root", fmt.Sprintf("unknown category root %q", s))
}
