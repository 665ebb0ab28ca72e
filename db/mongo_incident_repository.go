package db

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/portoviejo/incidentes/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type geoJSONPoint struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

type incidentDocument struct {
	ID           string       `bson:"_id"`
	Descripcion  string       `bson:"descripcion"`
	Tipo         string       `bson:"tipoIncidente"`
	Ubicacion    geoJSONPoint `bson:"ubicacion"`
	Estado       string       `bson:"estado"`
	ImageURL     string       `bson:"imageUrl,omitempty"`
	ThumbnailURL string       `bson:"thumbnailUrl,omitempty"`
	Likes        []string     `bson:"likes"`
	Autor        string       `bson:"autor"`
	Comentarios  []string     `bson:"comentarios"`
	CreatedAt    time.Time    `bson:"createdAt"`
	UpdatedAt    time.Time    `bson:"updatedAt"`
}

func (d *incidentDocument) model() models.Incident {
	var lon, lat float64
	if len(d.Ubicacion.Coordinates) == 2 {
		lon, lat = d.Ubicacion.Coordinates[0], d.Ubicacion.Coordinates[1]
	}
	return models.Incident{
		ID:           d.ID,
		Description:  d.Descripcion,
		Type:         models.IncidentType(d.Tipo),
		Longitude:    lon,
		Latitude:     lat,
		Status:       d.Estado,
		ImageURL:     d.ImageURL,
		ThumbnailURL: d.ThumbnailURL,
		AuthorID:     d.Autor,
		Model:        models.Model{CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
		Likes:        nonNil(d.Likes),
		CommentIDs:   nonNil(d.Comentarios),
	}
}

type commentDocument struct {
	ID        string    `bson:"_id"`
	Texto     string    `bson:"texto"`
	Incidente string    `bson:"incidente"`
	Autor     string    `bson:"autor"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func (d *commentDocument) model() models.Comment {
	return models.Comment{
		ID:         d.ID,
		Text:       d.Texto,
		IncidentID: d.Incidente,
		AuthorID:   d.Autor,
		Model:      models.Model{CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
	}
}

type mongoIncidentRepo struct {
	incidents *mongo.Collection
	comments  *mongo.Collection
}

func NewMongoIncidentRepo(m *MongoDB) IncidentRepository {
	return &mongoIncidentRepo{
		incidents: m.DB.Collection(incidentsCollection),
		comments:  m.DB.Collection(commentsCollection),
	}
}

func (r *mongoIncidentRepo) CreateIncident(ctx context.Context, incident *models.Incident) (*models.Incident, error) {
	if incident.ID == "" {
		incident.ID = uuid.NewString()
	}
	if incident.Status == "" {
		incident.Status = models.StatusSubmitted
	}
	now := time.Now().UTC()
	incident.CreatedAt, incident.UpdatedAt = now, now
	incident.Likes = []string{}
	incident.CommentIDs = []string{}

	doc := incidentDocument{
		ID:           incident.ID,
		Descripcion:  incident.Description,
		Tipo:         string(incident.Type),
		Ubicacion:    geoJSONPoint{Type: "Point", Coordinates: []float64{incident.Longitude, incident.Latitude}},
		Estado:       incident.Status,
		ImageURL:     incident.ImageURL,
		ThumbnailURL: incident.ThumbnailURL,
		Likes:        []string{},
		Autor:        incident.AuthorID,
		Comentarios:  []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := r.incidents.InsertOne(ctx, doc); err != nil {
		log.Printf("CreateIncident error: %v", err)
		return nil, errors.Wrap(err, "insert incident")
	}
	return incident, nil
}

func (r *mongoIncidentRepo) FindIncidentByID(ctx context.Context, id string) (*models.Incident, error) {
	var doc incidentDocument
	if err := r.incidents.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRecordNotFound
		}
		return nil, errors.Wrap(err, "find incident")
	}
	incident := doc.model()
	return &incident, nil
}

func (r *mongoIncidentRepo) ListIncidents(ctx context.Context, filter models.IncidentFilter) ([]models.Incident, error) {
	q := bson.M{}
	if filter.Type != "" {
		q["tipoIncidente"] = string(filter.Type)
	}
	if filter.AuthorID != "" {
		q["autor"] = filter.AuthorID
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.incidents.Find(ctx, q, opts)
	if err != nil {
		return nil, errors.Wrap(err, "list incidents")
	}
	var docs []incidentDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode incidents")
	}
	incidents := make([]models.Incident, len(docs))
	for i := range docs {
		incidents[i] = docs[i].model()
	}
	return incidents, nil
}

// AddComment inserts the comment, then pushes its id onto the incident. If
// the incident vanished in between, the comment is removed again.
func (r *mongoIncidentRepo) AddComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	count, err := r.incidents.CountDocuments(ctx, bson.M{"_id": comment.IncidentID})
	if err != nil {
		return nil, errors.Wrap(err, "check incident")
	}
	if count == 0 {
		return nil, ErrRecordNotFound
	}

	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	comment.CreatedAt, comment.UpdatedAt = now, now
	doc := commentDocument{
		ID:        comment.ID,
		Texto:     comment.Text,
		Incidente: comment.IncidentID,
		Autor:     comment.AuthorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.comments.InsertOne(ctx, doc); err != nil {
		return nil, errors.Wrap(err, "insert comment")
	}

	res, err := r.incidents.UpdateOne(ctx,
		bson.M{"_id": comment.IncidentID},
		bson.M{
			"$push": bson.M{"comentarios": comment.ID},
			"$set":  bson.M{"updatedAt": now},
		})
	if err == nil && res.MatchedCount == 0 {
		err = ErrRecordNotFound
	}
	if err != nil {
		if _, derr := r.comments.DeleteOne(ctx, bson.M{"_id": comment.ID}); derr != nil {
			log.Printf("AddComment: unable to remove orphan comment %s: %v", comment.ID, derr)
		}
		if errors.Is(err, ErrRecordNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, "attach comment")
	}
	return comment, nil
}

func (r *mongoIncidentRepo) FindCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	var doc commentDocument
	if err := r.comments.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRecordNotFound
		}
		return nil, errors.Wrap(err, "find comment")
	}
	comment := doc.model()
	return &comment, nil
}

func (r *mongoIncidentRepo) ListCommentsByIncident(ctx context.Context, incidentID string) ([]models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.comments.Find(ctx, bson.M{"incidente": incidentID}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "list comments")
	}
	var docs []commentDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode comments")
	}
	comments := make([]models.Comment, len(docs))
	for i := range docs {
		comments[i] = docs[i].model()
	}
	return comments, nil
}

// ToggleLike applies the flip as one pipeline update on the incident
// document, so concurrent toggles never leave a duplicate id behind.
func (r *mongoIncidentRepo) ToggleLike(ctx context.Context, incidentID, userID string) (bool, error) {
	likes := bson.M{"$ifNull": bson.A{"$likes", bson.A{}}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "likes", Value: bson.M{"$cond": bson.M{
				"if": bson.M{"$in": bson.A{userID, likes}},
				"then": bson.M{"$filter": bson.M{
					"input": likes,
					"cond":  bson.M{"$ne": bson.A{"$$this", userID}},
				}},
				"else": bson.M{"$concatArrays": bson.A{likes, bson.A{userID}}},
			}}},
			{Key: "updatedAt", Value: "$$NOW"},
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc incidentDocument
	err := r.incidents.FindOneAndUpdate(ctx, bson.M{"_id": incidentID}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, ErrRecordNotFound
		}
		return false, errors.Wrap(err, "toggle like")
	}
	for _, id := range doc.Likes {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}
