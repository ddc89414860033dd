package torznab

import (
	"iter"

	"github.com/driftarr/driftarr/internal/indexer/types"
)

// Definition pairs a display name with preconfigured settings for a
// commonly-used public Torznab indexer.
type Definition struct {
	Name     string
	Settings Settings
}

// DefaultDefinitions yields the built-in indexer definitions. The
// sequence is finite and restartable; consumers decide whether and how
// to persist the entries. Seeded instances must keep RSS sync and
// automatic/interactive search disabled until a user enables them.
func DefaultDefinitions() iter.Seq[Definition] {
	return func(yield func(Definition) bool) {
		yield(Definition{
			Name: "AnimeTosho",
			Settings: NewSettings("https://feed.animetosho.org",
				WithAPIPath("/nabapi"),
				WithCategories([]int{}),
				WithAnimeCategories([]int{types.CategoryTVAnime}),
			),
		})
	}
}
