// Package catalog serves the static list of games offered by the portal.
package catalog

import (
	"path"
	"strings"

	"github.com/gamehub/apiserver/types"
)

// All returns every catalog entry in display order.
func All() []types.Game {
	out := make([]types.Game, len(games))
	copy(out, games)
	return out
}

// Find returns the game with the given id.
func Find(id string) (types.Game, bool) {
	for _, g := range games {
		if g.ID == id {
			return g, true
		}
	}
	return types.Game{}, false
}

// Filter returns the games matching a title search or a category tag. A
// non-empty search ignores the tag, the way typing in the search box
// resets the selected category.
func Filter(search, tag string) []types.Game {
	search = strings.ToLower(strings.TrimSpace(search))
	tag = strings.TrimSpace(tag)

	out := make([]types.Game, 0, len(games))
	for _, g := range games {
		switch {
		case search != "":
			if !strings.Contains(strings.ToLower(g.Title), search) {
				continue
			}
		case tag != "" && tag != TagAll:
			if !g.HasTag(tag) {
				continue
			}
		}
		out = append(out, g)
	}
	return out
}

// ImageName returns the file name of a game's cover image.
func ImageName(g types.Game) string {
	return path.Base(g.Image)
}
