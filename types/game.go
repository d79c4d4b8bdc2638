package types

// GameStatus marks whether a catalog entry is playable.
type GameStatus string

const (
	GameActive     GameStatus = "active"
	GameComingSoon GameStatus = "coming-soon"
)

// Game is an entry of the static game catalog.
type Game struct {
	// ID is the stable identifier used for stats and favorites.
	ID string `json:"id"`

	// Title is the display name.
	Title string `json:"title"`

	// Path is the frontend route that hosts the game.
	Path string `json:"path"`

	// Image is the public path of the cover image.
	Image string `json:"img"`

	// Tags are the categories the game is listed under.
	Tags []string `json:"tags"`

	// Status is active for playable games and coming-soon otherwise.
	Status GameStatus `json:"status"`
}

// HasTag reports whether the game is listed under tag.
func (g Game) HasTag(tag string) bool {
	for _, t := range g.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
