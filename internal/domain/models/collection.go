package models

// DefaultCoverURL is shown for collections without a resolvable first movie.
const DefaultCoverURL = "/default-movie-cover.png"

// Collection is a named, ordered list of movie references.
//
// NameCI holds text.Fold(Name) and is only a lookup aid; uniqueness is
// checked by scanning, not enforced by the store.
type Collection struct {
	ID       string   `bson:"-" json:"id"`
	Name     string   `bson:"name" json:"name"`
	NameCI   string   `bson:"name_ci" json:"-"`
	MovieIDs []string `bson:"movie_ids" json:"movieIds"`

	// CoverURL is derived on read and never stored.
	CoverURL string `bson:"-" json:"coverUrl,omitempty"`
}

// Contains reports whether the collection references movieID.
func (c *Collection) Contains(movieID string) bool {
	for _, id := range c.MovieIDs {
		if id == movieID {
			return true
		}
	}
	return false
}

// CollectionWithMovies is a collection together with the movies its ids
// resolved to. Dangling ids are absent from Movies.
type CollectionWithMovies struct {
	Collection
	Movies []Movie `json:"movies"`
}
