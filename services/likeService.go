package services

import (
	"context"
	"log"

	"github.com/pkg/errors"
	"github.com/portoviejo/incidentes/config"
	"github.com/portoviejo/incidentes/db"
	apiError "github.com/portoviejo/incidentes/errors"
	"github.com/portoviejo/incidentes/models"
)

// LikeService interface
type LikeService interface {
	// ToggleLike flips the caller's like and returns the populated incident.
	ToggleLike(ctx context.Context, userID, incidentID string) (*models.IncidentDetail, *apiError.Error)
}

// likeService struct
type likeService struct {
	Config       *config.Config
	incidentRepo db.IncidentRepository
	query        *db.IncidentQuery
}

// NewLikeService creates a new instance of LikeService
func NewLikeService(incidentRepo db.IncidentRepository, query *db.IncidentQuery, conf *config.Config) LikeService {
	return &likeService{
		Config:       conf,
		incidentRepo: incidentRepo,
		query:        query,
	}
}

func (lk *likeService) ToggleLike(ctx context.Context, userID, incidentID string) (*models.IncidentDetail, *apiError.Error) {
	liked, err := lk.incidentRepo.ToggleLike(ctx, incidentID, userID)
	if err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, apiError.ErrNotFound
		}
		log.Printf("ToggleLike error: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	log.Printf("user %s liked=%t incident %s", userID, liked, incidentID)

	detail, err := lk.query.Detail(ctx, incidentID)
	if err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, apiError.ErrNotFound
		}
		log.Printf("ToggleLike error loading incident: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	return detail, nil
}
