package models

import "time"

// UserRef is a populated user reference: public fields only.
type UserRef struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
}

// GeoPoint is a GeoJSON point; Coordinates is [longitude, latitude].
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

func NewGeoPoint(longitude, latitude float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: [2]float64{longitude, latitude}}
}

func (p GeoPoint) Longitude() float64 { return p.Coordinates[0] }
func (p GeoPoint) Latitude() float64  { return p.Coordinates[1] }

// IncidentView is the feed shape: author populated, likes and comments as ids.
type IncidentView struct {
	ID           string       `json:"_id"`
	Description  string       `json:"descripcion"`
	Type         IncidentType `json:"tipoIncidente"`
	Location     GeoPoint     `json:"ubicacion"`
	Status       string       `json:"estado"`
	ImageURL     string       `json:"imageUrl,omitempty"`
	ThumbnailURL string       `json:"thumbnailUrl,omitempty"`
	Author       UserRef      `json:"autor"`
	Likes        []string     `json:"likes"`
	Comments     []string     `json:"comentarios"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// CommentView is a comment with its author populated.
type CommentView struct {
	ID         string    `json:"_id"`
	Text       string    `json:"texto"`
	IncidentID string    `json:"incidente"`
	Author     UserRef   `json:"autor"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// IncidentDetail is the fully populated incident: author, likers and
// comments with their authors, comments oldest first.
type IncidentDetail struct {
	ID           string        `json:"_id"`
	Description  string        `json:"descripcion"`
	Type         IncidentType  `json:"tipoIncidente"`
	Location     GeoPoint      `json:"ubicacion"`
	Status       string        `json:"estado"`
	ImageURL     string        `json:"imageUrl,omitempty"`
	ThumbnailURL string        `json:"thumbnailUrl,omitempty"`
	Author       UserRef       `json:"autor"`
	Likes        []UserRef     `json:"likes"`
	Comments     []CommentView `json:"comentarios"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// LikedBy reports whether userID is among the likers.
func (d *IncidentDetail) LikedBy(userID string) bool {
	for _, u := range d.Likes {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// PrependComment puts a freshly posted comment first, the order the client
// shows its own new comments in.
func (d *IncidentDetail) PrependComment(c CommentView) {
	d.Comments = append([]CommentView{c}, d.Comments...)
}

// StoredIncident is the unpopulated shape returned right after creation.
type StoredIncident struct {
	ID           string       `json:"_id"`
	Description  string       `json:"descripcion"`
	Type         IncidentType `json:"tipoIncidente"`
	Location     GeoPoint     `json:"ubicacion"`
	Status       string       `json:"estado"`
	ImageURL     string       `json:"imageUrl,omitempty"`
	ThumbnailURL string       `json:"thumbnailUrl,omitempty"`
	AuthorID     string       `json:"autor"`
	Likes        []string     `json:"likes"`
	Comments     []string     `json:"comentarios"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

func NewStoredIncident(i *Incident) StoredIncident {
	return StoredIncident{
		ID:           i.ID,
		Description:  i.Description,
		Type:         i.Type,
		Location:     NewGeoPoint(i.Longitude, i.Latitude),
		Status:       i.Status,
		ImageURL:     i.ImageURL,
		ThumbnailURL: i.ThumbnailURL,
		AuthorID:     i.AuthorID,
		Likes:        nonNil(i.Likes),
		Comments:     nonNil(i.CommentIDs),
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	Token string `json:"token"`
}
