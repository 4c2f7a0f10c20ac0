package models

// Movie is a catalog entry. Movies are created and deleted by admins and are
// never updated in place.
//
// ID is the document id assigned by the store; it is not part of the stored
// fields.
type Movie struct {
	ID          string `bson:"-" json:"id"`
	Title       string `bson:"title" json:"title"`
	Description string `bson:"description" json:"description"`
	Year        int    `bson:"year" json:"year"`
	Genre       string `bson:"genre" json:"genre"`
	Poster      string `bson:"poster" json:"poster"`
}

// MovieInput is the raw admin form for a new movie. Year arrives as text and
// is parsed by the catalog.
type MovieInput struct {
	Title       string `json:"title" validate:"required" label:"Title"`
	Description string `json:"description" validate:"required" label:"Description"`
	Year        string `json:"year" validate:"required" label:"Year"`
	Genre       string `json:"genre" validate:"required" label:"Genre"`
	Poster      string `json:"poster" validate:"required" label:"Poster"`
}
