package db

import (
	"context"

	"github.com/pkg/errors"
	"github.com/portoviejo/incidentes/models"
)

// IncidentQuery resolves stored references into response views. It works on
// top of any AuthRepository/IncidentRepository pair.
type IncidentQuery struct {
	users     AuthRepository
	incidents IncidentRepository
}

func NewIncidentQuery(users AuthRepository, incidents IncidentRepository) *IncidentQuery {
	return &IncidentQuery{users: users, incidents: incidents}
}

// userIndex caches public user references by id.
type userIndex map[string]models.UserRef

func (q *IncidentQuery) loadUsers(ctx context.Context, ids []string) (userIndex, error) {
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	users, err := q.users.FindUsersByIDs(ctx, unique)
	if err != nil {
		return nil, errors.Wrap(err, "populate users")
	}
	idx := make(userIndex, len(users))
	for i := range users {
		idx[users[i].ID] = users[i].Public()
	}
	return idx, nil
}

func (idx userIndex) ref(id string) models.UserRef {
	if u, ok := idx[id]; ok {
		return u
	}
	return models.UserRef{ID: id}
}

// List returns the feed view of the incidents matching filter, newest first.
func (q *IncidentQuery) List(ctx context.Context, filter models.IncidentFilter) ([]models.IncidentView, error) {
	incidents, err := q.incidents.ListIncidents(ctx, filter)
	if err != nil {
		return nil, err
	}
	authorIDs := make([]string, len(incidents))
	for i := range incidents {
		authorIDs[i] = incidents[i].AuthorID
	}
	idx, err := q.loadUsers(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	views := make([]models.IncidentView, len(incidents))
	for i := range incidents {
		inc := &incidents[i]
		views[i] = models.IncidentView{
			ID:           inc.ID,
			Description:  inc.Description,
			Type:         inc.Type,
			Location:     models.NewGeoPoint(inc.Longitude, inc.Latitude),
			Status:       inc.Status,
			ImageURL:     inc.ImageURL,
			ThumbnailURL: inc.ThumbnailURL,
			Author:       idx.ref(inc.AuthorID),
			Likes:        nonNil(inc.Likes),
			Comments:     nonNil(inc.CommentIDs),
			CreatedAt:    inc.CreatedAt,
			UpdatedAt:    inc.UpdatedAt,
		}
	}
	return views, nil
}

// Detail returns one fully populated incident.
func (q *IncidentQuery) Detail(ctx context.Context, id string) (*models.IncidentDetail, error) {
	incident, err := q.incidents.FindIncidentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	details, err := q.details(ctx, []models.Incident{*incident})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// ListDetails returns fully populated incidents matching filter, newest first.
func (q *IncidentQuery) ListDetails(ctx context.Context, filter models.IncidentFilter) ([]models.IncidentDetail, error) {
	incidents, err := q.incidents.ListIncidents(ctx, filter)
	if err != nil {
		return nil, err
	}
	return q.details(ctx, incidents)
}

// Comment returns one comment with its author populated.
func (q *IncidentQuery) Comment(ctx context.Context, id string) (*models.CommentView, error) {
	comment, err := q.incidents.FindCommentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	idx, err := q.loadUsers(ctx, []string{comment.AuthorID})
	if err != nil {
		return nil, err
	}
	view := commentView(comment, idx)
	return &view, nil
}

func (q *IncidentQuery) details(ctx context.Context, incidents []models.Incident) ([]models.IncidentDetail, error) {
	comments := make([][]models.Comment, len(incidents))
	var userIDs []string
	for i := range incidents {
		list, err := q.incidents.ListCommentsByIncident(ctx, incidents[i].ID)
		if err != nil {
			return nil, err
		}
		comments[i] = list
		userIDs = append(userIDs, incidents[i].AuthorID)
		userIDs = append(userIDs, incidents[i].Likes...)
		for j := range list {
			userIDs = append(userIDs, list[j].AuthorID)
		}
	}
	idx, err := q.loadUsers(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	details := make([]models.IncidentDetail, len(incidents))
	for i := range incidents {
		inc := &incidents[i]
		likes := make([]models.UserRef, len(inc.Likes))
		for j, id := range inc.Likes {
			likes[j] = idx.ref(id)
		}
		views := make([]models.CommentView, len(comments[i]))
		for j := range comments[i] {
			views[j] = commentView(&comments[i][j], idx)
		}
		details[i] = models.IncidentDetail{
			ID:           inc.ID,
			Description:  inc.Description,
			Type:         inc.Type,
			Location:     models.NewGeoPoint(inc.Longitude, inc.Latitude),
			Status:       inc.Status,
			ImageURL:     inc.ImageURL,
			ThumbnailURL: inc.ThumbnailURL,
			Author:       idx.ref(inc.AuthorID),
			Likes:        likes,
			Comments:     views,
			CreatedAt:    inc.CreatedAt,
			UpdatedAt:    inc.UpdatedAt,
		}
	}
	return details, nil
}

func commentView(c *models.Comment, idx userIndex) models.CommentView {
	return models.CommentView{
		ID:         c.ID,
		Text:       c.Text,
		IncidentID: c.IncidentID,
		Author:     idx.ref(c.AuthorID),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
