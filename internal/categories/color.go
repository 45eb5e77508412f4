package categories

import (
	"hash/fnv"
	"math/rand/v2"
	"strconv"

	"github.com/idilsaglam/carrot/internal/config"
	"github.com/idilsaglam/carrot/internal/model"
)

// Colorer fills in the Color of every category in a fetched list.
type Colorer interface {
	Assign(cats []model.Category) []model.Category
	// For returns the color of a single category outside a list fetch.
	For(id int) string
}

// Stable derives the color from the category id, so a category keeps its
// color across fetches and processes.
type Stable struct {
	Palette []string
}

func (s Stable) For(id int) string {
	if len(s.Palette) == 0 {
		return ""
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.Itoa(id)))
	return s.Palette[h.Sum32()%uint32(len(s.Palette))]
}

func (s Stable) Assign(cats []model.Category) []model.Category {
	out := make([]model.Category, len(cats))
	for i, c := range cats {
		c.Color = s.For(c.ID)
		out[i] = c
	}
	return out
}

// Shuffled reshuffles the palette on every fetch and hands out
// palette[index mod N]. Colors change between fetches.
type Shuffled struct {
	Palette []string
	Rand    *rand.Rand
}

func (s Shuffled) shuffled() []string {
	p := append([]string(nil), s.Palette...)
	shuffle := rand.Shuffle
	if s.Rand != nil {
		shuffle = s.Rand.Shuffle
	}
	shuffle(len(p), func(i, j int) { p[i], p[j] = p[j], p[i] })
	return p
}

func (s Shuffled) Assign(cats []model.Category) []model.Category {
	p := s.shuffled()
	out := make([]model.Category, len(cats))
	for i, c := range cats {
		if len(p) > 0 {
			c.Color = p[i%len(p)]
		}
		out[i] = c
	}
	return out
}

// For falls back to the id hash for categories outside a fetch.
func (s Shuffled) For(id int) string { return Stable{Palette: s.Palette}.For(id) }

// NewColorer picks the assignment for a config mode ("stable" or
// "shuffle").
func NewColorer(mode string, palette []string) Colorer {
	if mode == config.ColorsShuffle {
		return Shuffled{Palette: palette}
	}
	return Stable{Palette: palette}
}
