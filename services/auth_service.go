package services

import (
	"context"
	"log"

	"github.com/pkg/errors"
	"github.com/portoviejo/incidentes/config"
	"github.com/portoviejo/incidentes/db"
	apiError "github.com/portoviejo/incidentes/errors"
	"github.com/portoviejo/incidentes/models"
	"github.com/portoviejo/incidentes/services/jwt"
	"github.com/portoviejo/incidentes/services/utils"
)

// AuthService interface
type AuthService interface {
	RegisterUser(ctx context.Context, request *models.RegisterRequest) (*models.TokenResponse, *apiError.Error)
	LoginUser(ctx context.Context, request *models.LoginRequest) (*models.TokenResponse, *apiError.Error)
}

// authService struct
type authService struct {
	Config   *config.Config
	authRepo db.AuthRepository
	// dummyHash is compared against when the email is unknown.
	dummyHash string
}

// NewAuthService instantiate an authService
func NewAuthService(authRepo db.AuthRepository, conf *config.Config) AuthService {
	dummy, err := utils.HashPassword("incidentes-dummy-password", conf.BcryptCost)
	if err != nil {
		log.Printf("NewAuthService: unable to build dummy hash: %v", err)
	}
	return &authService{
		Config:    conf,
		authRepo:  authRepo,
		dummyHash: dummy,
	}
}

func (a *authService) RegisterUser(ctx context.Context, request *models.RegisterRequest) (*models.TokenResponse, *apiError.Error) {
	if err := request.Validate(); err != nil {
		return nil, apiError.Validation("%s", err.Error())
	}

	err := a.authRepo.IsEmailOrUsernameExist(ctx, request.Email, request.Username)
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, apiError.ErrConflict
		}
		log.Printf("RegisterUser error: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	hashedPassword, err := utils.HashPassword(request.Password, a.Config.BcryptCost)
	if err != nil {
		log.Printf("RegisterUser error hashing password: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	user, err := a.authRepo.CreateUser(ctx, &models.User{
		Username:       request.Username,
		Email:          request.Email,
		HashedPassword: hashedPassword,
	})
	if err != nil {
		// A concurrent registration can still win the unique index.
		if errors.Is(err, db.ErrDuplicate) {
			return nil, apiError.ErrConflict
		}
		log.Printf("RegisterUser error creating user: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	return a.issue(user.ID)
}

// LoginUser answers unknown emails and wrong passwords identically.
func (a *authService) LoginUser(ctx context.Context, request *models.LoginRequest) (*models.TokenResponse, *apiError.Error) {
	if err := request.Validate(); err != nil {
		return nil, apiError.Validation("%s", err.Error())
	}

	foundUser, err := a.authRepo.FindUserByEmail(ctx, request.Email)
	if err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			_ = (&models.User{HashedPassword: a.dummyHash}).VerifyPassword(request.Password)
			return nil, apiError.ErrInvalidCredentials
		}
		log.Printf("Error finding user by email: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	if err := foundUser.VerifyPassword(request.Password); err != nil {
		return nil, apiError.ErrInvalidCredentials
	}
	return a.issue(foundUser.ID)
}

func (a *authService) issue(userID string) (*models.TokenResponse, *apiError.Error) {
	token, err := jwt.GenerateToken(userID, a.Config.JWTSecret, a.Config.JWTExpiry)
	if err != nil {
		log.Printf("error generating token: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	return &models.TokenResponse{Token: token}, nil
}
