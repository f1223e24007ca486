// Package catalog holds the Julook domain model and the interfaces of the
// collaborators that feature reducers talk to from their effects.
package catalog

import (
	"slices"
	"time"
)

// Makgeolli is one catalog entry.
type Makgeolli struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Brewery      string   `json:"brewery"`
	ABV          float64  `json:"abv"`
	Volume       int      `json:"volume"`
	Price        int      `json:"price"`
	Sweetness    int      `json:"sweetness"`
	Sourness     int      `json:"sourness"`
	Thickness    int      `json:"thickness"`
	Freshness    int      `json:"freshness"`
	Carbonated   bool     `json:"carbonated"`
	ImagePath    string   `json:"image_path"`
	LikeCount    int      `json:"like_count"`
	DislikeCount int      `json:"dislike_count"`
	Awards       []string `json:"awards"`
}

// Comment is a user comment on a makgeolli.
type Comment struct {
	ID          string    `json:"id"`
	MakgeolliID string    `json:"makgeolli_id"`
	UserID      string    `json:"user_id"`
	Nickname    string    `json:"nickname"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// Reaction is a user's like/dislike on a makgeolli.
type Reaction int

const (
	ReactionNone Reaction = iota
	ReactionLike
	ReactionDislike
)

// String returns the wire name of the reaction.
func (r Reaction) String() string {
	switch r {
	case ReactionLike:
		return "like"
	case ReactionDislike:
		return "dislike"
	default:
		return "none"
	}
}

// ParseReaction parses a wire name. Unknown names are ReactionNone.
func ParseReaction(s string) Reaction {
	switch s {
	case "like":
		return ReactionLike
	case "dislike":
		return ReactionDislike
	default:
		return ReactionNone
	}
}

// Attribute is a taste dimension a filter can constrain.
type Attribute string

const (
	AttrSweetness Attribute = "sweetness"
	AttrSourness  Attribute = "sourness"
	AttrThickness Attribute = "thickness"
	AttrFreshness Attribute = "freshness"
)

// Attributes lists the filterable taste attributes.
var Attributes = []Attribute{AttrSweetness, AttrSourness, AttrThickness, AttrFreshness}

// Taste levels run from 1 to 5.
const (
	MinLevel = 1
	MaxLevel = 5
)

// TasteFilter narrows a catalog listing. Empty sets match everything.
type TasteFilter struct {
	Levels     map[Attribute][]int
	Carbonated *bool
	MinPrice   int
	MaxPrice   int
}

// IsEmpty reports whether the filter matches everything.
func (f TasteFilter) IsEmpty() bool {
	for _, lv := range f.Levels {
		if len(lv) > 0 {
			return false
		}
	}
	return f.Carbonated == nil && f.MinPrice == 0 && f.MaxPrice == 0
}

// Toggle returns a copy of f with level added to or removed from attr.
func (f TasteFilter) Toggle(attr Attribute, level int) TasteFilter {
	next := f.clone()
	levels := next.Levels[attr]
	if i := slices.Index(levels, level); i >= 0 {
		levels = slices.Delete(levels, i, i+1)
	} else {
		levels = append(levels, level)
		slices.Sort(levels)
	}
	if len(levels) == 0 {
		delete(next.Levels, attr)
	} else {
		next.Levels[attr] = levels
	}
	return next
}

// Has reports whether level is selected for attr.
func (f TasteFilter) Has(attr Attribute, level int) bool {
	return slices.Contains(f.Levels[attr], level)
}

// Matches reports whether m satisfies f. The remote applies the same rules
// server side; this is used for local re-filtering.
func (f TasteFilter) Matches(m Makgeolli) bool {
	values := map[Attribute]int{
		AttrSweetness: m.Sweetness,
		AttrSourness:  m.Sourness,
		AttrThickness: m.Thickness,
		AttrFreshness: m.Freshness,
	}
	for attr, levels := range f.Levels {
		if len(levels) > 0 && !slices.Contains(levels, values[attr]) {
			return false
		}
	}
	if f.Carbonated != nil && *f.Carbonated != m.Carbonated {
		return false
	}
	if f.MinPrice > 0 && m.Price < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && m.Price > f.MaxPrice {
		return false
	}
	return true
}

func (f TasteFilter) clone() TasteFilter {
	next := f
	next.Levels = make(map[Attribute][]int, len(f.Levels))
	for k, v := range f.Levels {
		next.Levels[k] = slices.Clone(v)
	}
	if f.Carbonated != nil {
		c := *f.Carbonated
		next.Carbonated = &c
	}
	return next
}

// Profile is the signed-in user's public profile.
type Profile struct {
	UserID   string `json:"id"`
	Nickname string `json:"nickname"`
}

// ToastLevel grades a toast message.
type ToastLevel int

const (
	ToastInfo ToastLevel = iota
	ToastError
)

// Toast is a transient user-facing message.
type Toast struct {
	Message string
	Level   ToastLevel
}

// MergeUnique appends items from next to current, skipping ids already
// present, and returns a new slice.
func MergeUnique(current, next []Makgeolli) []Makgeolli {
	seen := make(map[string]struct{}, len(current)+len(next))
	out := make([]Makgeolli, 0, len(current)+len(next))
	for _, m := range current {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	for _, m := range next {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}
