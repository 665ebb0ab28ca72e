package services

import (
	"context"
	"log"
	"mime/multipart"

	"github.com/pkg/errors"
	"github.com/portoviejo/incidentes/config"
	"github.com/portoviejo/incidentes/db"
	apiError "github.com/portoviejo/incidentes/errors"
	"github.com/portoviejo/incidentes/models"
)

type IncidentService interface {
	CreateIncident(ctx context.Context, userID string, request *models.CreateIncidentRequest, image *multipart.FileHeader) (*models.StoredIncident, *apiError.Error)
	ListIncidents(ctx context.Context, tipo string) ([]models.IncidentView, *apiError.Error)
	GetIncident(ctx context.Context, id string) (*models.IncidentDetail, *apiError.Error)
	ListMyIncidents(ctx context.Context, userID string) ([]models.IncidentDetail, *apiError.Error)
	AddComment(ctx context.Context, userID, incidentID string, request *models.CreateCommentRequest) (*models.CommentView, *apiError.Error)
}

type incidentService struct {
	Config       *config.Config
	incidentRepo db.IncidentRepository
	query        *db.IncidentQuery
	media        MediaService
}

// NewIncidentService instantiates an IncidentService
func NewIncidentService(incidentRepo db.IncidentRepository, query *db.IncidentQuery, media MediaService, conf *config.Config) IncidentService {
	return &incidentService{
		Config:       conf,
		incidentRepo: incidentRepo,
		query:        query,
		media:        media,
	}
}

// CreateIncident validates the form, uploads the photo and only then stores
// the incident with the returned URLs.
func (s *incidentService) CreateIncident(ctx context.Context, userID string, request *models.CreateIncidentRequest, image *multipart.FileHeader) (*models.StoredIncident, *apiError.Error) {
	incidentType, err := request.Validate()
	if err != nil {
		return nil, apiError.Validation("%s", err.Error())
	}
	if image == nil {
		return nil, ErrImageRequired
	}

	stored, err := s.media.ProcessImage(ctx, image)
	if err != nil {
		var apiErr *apiError.Error
		if errors.As(err, &apiErr) {
			return nil, apiErr
		}
		log.Printf("CreateIncident error processing image: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	incident, err := s.incidentRepo.CreateIncident(ctx, &models.Incident{
		Description:  request.Description,
		Type:         incidentType,
		Longitude:    *request.Longitude,
		Latitude:     *request.Latitude,
		ImageURL:     stored.URL,
		ThumbnailURL: stored.ThumbnailURL,
		AuthorID:     userID,
	})
	if err != nil {
		log.Printf("CreateIncident error saving incident: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	view := models.NewStoredIncident(incident)
	return &view, nil
}

func (s *incidentService) ListIncidents(ctx context.Context, tipo string) ([]models.IncidentView, *apiError.Error) {
	var filter models.IncidentFilter
	if !models.IsFilterAll(tipo) {
		filter.Type, _ = models.ParseIncidentType(tipo)
	}
	incidents, err := s.query.List(ctx, filter)
	if err != nil {
		log.Printf("ListIncidents error: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	return incidents, nil
}

func (s *incidentService) GetIncident(ctx context.Context, id string) (*models.IncidentDetail, *apiError.Error) {
	detail, err := s.query.Detail(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, apiError.ErrNotFound
		}
		log.Printf("GetIncident error: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	return detail, nil
}

func (s *incidentService) ListMyIncidents(ctx context.Context, userID string) ([]models.IncidentDetail, *apiError.Error) {
	details, err := s.query.ListDetails(ctx, models.IncidentFilter{AuthorID: userID})
	if err != nil {
		log.Printf("ListMyIncidents error: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	return details, nil
}

func (s *incidentService) AddComment(ctx context.Context, userID, incidentID string, request *models.CreateCommentRequest) (*models.CommentView, *apiError.Error) {
	if err := request.Validate(); err != nil {
		return nil, apiError.Validation("%s", err.Error())
	}

	comment, err := s.incidentRepo.AddComment(ctx, &models.Comment{
		Text:       request.Text,
		IncidentID: incidentID,
		AuthorID:   userID,
	})
	if err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, apiError.ErrNotFound
		}
		log.Printf("AddComment error: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	view, err := s.query.Comment(ctx, comment.ID)
	if err != nil {
		log.Printf("AddComment error loading comment: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	return view, nil
}
