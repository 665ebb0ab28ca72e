package db

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"
	"github.com/portoviejo/incidentes/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IncidentRepository is the incident and comment store. Returned incidents
// always carry their Likes and CommentIDs.
type IncidentRepository interface {
	CreateIncident(ctx context.Context, incident *models.Incident) (*models.Incident, error)
	FindIncidentByID(ctx context.Context, id string) (*models.Incident, error)
	ListIncidents(ctx context.Context, filter models.IncidentFilter) ([]models.Incident, error)
	// AddComment stores comment and attaches it to its incident, or returns
	// ErrRecordNotFound when the incident does not exist.
	AddComment(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	FindCommentByID(ctx context.Context, id string) (*models.Comment, error)
	ListCommentsByIncident(ctx context.Context, incidentID string) ([]models.Comment, error)
	// ToggleLike flips userID's membership in the incident's likes set in one
	// transaction and reports whether the user likes it afterwards.
	ToggleLike(ctx context.Context, incidentID, userID string) (bool, error)
}

type incidentRepo struct {
	DB *gorm.DB
}

func NewIncidentRepo(db *GormDB) IncidentRepository {
	return &incidentRepo{db.DB}
}

func (r *incidentRepo) CreateIncident(ctx context.Context, incident *models.Incident) (*models.Incident, error) {
	if err := r.DB.WithContext(ctx).Omit(clause.Associations).Create(incident).Error; err != nil {
		log.Printf("CreateIncident error: %v", err)
		return nil, errors.Wrap(err, "create incident")
	}
	incident.Likes = []string{}
	incident.CommentIDs = []string{}
	return incident, nil
}

func (r *incidentRepo) FindIncidentByID(ctx context.Context, id string) (*models.Incident, error) {
	var incident models.Incident
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&incident).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, errors.Wrap(err, "find incident")
	}
	incidents := []models.Incident{incident}
	if err := r.attachRefs(ctx, incidents); err != nil {
		return nil, err
	}
	return &incidents[0], nil
}

func (r *incidentRepo) ListIncidents(ctx context.Context, filter models.IncidentFilter) ([]models.Incident, error) {
	q := r.DB.WithContext(ctx).Model(&models.Incident{})
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.AuthorID != "" {
		q = q.Where("author_id = ?", filter.AuthorID)
	}
	var incidents []models.Incident
	if err := q.Order("created_at DESC, id DESC").Find(&incidents).Error; err != nil {
		return nil, errors.Wrap(err, "list incidents")
	}
	if err := r.attachRefs(ctx, incidents); err != nil {
		return nil, err
	}
	return incidents, nil
}

// attachRefs fills Likes and CommentIDs for every incident with two queries.
func (r *incidentRepo) attachRefs(ctx context.Context, incidents []models.Incident) error {
	if len(incidents) == 0 {
		return nil
	}
	ids := make([]string, len(incidents))
	index := make(map[string]int, len(incidents))
	for i := range incidents {
		ids[i] = incidents[i].ID
		index[incidents[i].ID] = i
		incidents[i].Likes = []string{}
		incidents[i].CommentIDs = []string{}
	}

	var likes []models.IncidentLike
	err := r.DB.WithContext(ctx).
		Where("incident_id IN ?", ids).
		Order("created_at ASC, user_id ASC").
		Find(&likes).Error
	if err != nil {
		return errors.Wrap(err, "load likes")
	}
	for _, l := range likes {
		i := index[l.IncidentID]
		incidents[i].Likes = append(incidents[i].Likes, l.UserID)
	}

	var comments []models.Comment
	err = r.DB.WithContext(ctx).
		Select("id", "incident_id").
		Where("incident_id IN ?", ids).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return errors.Wrap(err, "load comment ids")
	}
	for _, c := range comments {
		i := index[c.IncidentID]
		incidents[i].CommentIDs = append(incidents[i].CommentIDs, c.ID)
	}
	return nil
}

func (r *incidentRepo) AddComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockIncident(tx, comment.IncidentID); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(comment).Error; err != nil {
			return errors.Wrap(err, "create comment")
		}
		return touchIncident(tx, comment.IncidentID)
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (r *incidentRepo) FindCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, errors.Wrap(err, "find comment")
	}
	return &comment, nil
}

func (r *incidentRepo) ListCommentsByIncident(ctx context.Context, incidentID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.DB.WithContext(ctx).
		Where("incident_id = ?", incidentID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, errors.Wrap(err, "list comments")
	}
	return comments, nil
}

func (r *incidentRepo) ToggleLike(ctx context.Context, incidentID, userID string) (bool, error) {
	var liked bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockIncident(tx, incidentID); err != nil {
			return err
		}
		res := tx.Where("incident_id = ? AND user_id = ?", incidentID, userID).Delete(&models.IncidentLike{})
		if res.Error != nil {
			return errors.Wrap(res.Error, "remove like")
		}
		if res.RowsAffected == 0 {
			like := models.IncidentLike{IncidentID: incidentID, UserID: userID, CreatedAt: time.Now()}
			// The primary key turns a concurrent duplicate insert into a no-op.
			err := tx.Omit(clause.Associations).
				Clauses(clause.OnConflict{DoNothing: true}).
				Create(&like).Error
			if err != nil {
				return errors.Wrap(err, "add like")
			}
			liked = true
		}
		return touchIncident(tx, incidentID)
	})
	if err != nil {
		return false, err
	}
	return liked, nil
}

// lockIncident checks that the incident exists, taking a row lock where the
// dialect supports one.
func lockIncident(tx *gorm.DB, incidentID string) error {
	q := tx.Model(&models.Incident{}).Select("id").Where("id = ?", incidentID)
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var found models.Incident
	if err := q.Take(&found).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		return errors.Wrap(err, "lock incident")
	}
	return nil
}

func touchIncident(tx *gorm.DB, incidentID string) error {
	err := tx.Model(&models.Incident{}).
		Where("id = ?", incidentID).
		UpdateColumn("updated_at", time.Now()).Error
	if err != nil {
		return errors.Wrap(err, "touch incident")
	}
	return nil
}
