package db

import (
	"context"
	"log"

	"github.com/pkg/errors"
	"github.com/portoviejo/incidentes/models"
	"gorm.io/gorm"
)

// AuthRepository is the credential store.
type AuthRepository interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	IsEmailOrUsernameExist(ctx context.Context, email, username string) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

type authRepo struct {
	DB *gorm.DB
}

func NewAuthRepo(db *GormDB) AuthRepository {
	return &authRepo{db.DB}
}

func (a *authRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if user == nil {
		return nil, errors.New("user is nil")
	}
	if err := a.DB.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicate
		}
		log.Printf("CreateUser error: %v", err)
		return nil, errors.Wrap(err, "create user")
	}
	return user, nil
}

// IsEmailOrUsernameExist returns ErrDuplicate when either value is taken.
func (a *authRepo) IsEmailOrUsernameExist(ctx context.Context, email, username string) error {
	var count int64
	err := a.DB.WithContext(ctx).Model(&models.User{}).
		Where("email = ? OR username = ?", email, username).
		Count(&count).Error
	if err != nil {
		return errors.Wrap(err, "gorm count error")
	}
	if count > 0 {
		return ErrDuplicate
	}
	return nil
}

func (a *authRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := a.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, errors.Wrap(err, "error finding user by email")
	}
	return &user, nil
}

func (a *authRepo) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := a.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, errors.Wrap(err, "error finding user by id")
	}
	return &user, nil
}

func (a *authRepo) FindUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := a.DB.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "error finding users")
	}
	return users, nil
}
