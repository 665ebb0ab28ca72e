package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/portoviejo/incidentes/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type userDocument struct {
	ID        string    `bson:"_id"`
	Username  string    `bson:"username"`
	Email     string    `bson:"email"`
	Password  string    `bson:"password"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func (d *userDocument) model() models.User {
	return models.User{
		ID:             d.ID,
		Username:       d.Username,
		Email:          d.Email,
		HashedPassword: d.Password,
		Model:          models.Model{CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
	}
}

type mongoAuthRepo struct {
	users *mongo.Collection
}

func NewMongoAuthRepo(m *MongoDB) AuthRepository {
	return &mongoAuthRepo{users: m.DB.Collection(usersCollection)}
}

func (a *mongoAuthRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if user == nil {
		return nil, errors.New("user is nil")
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	doc := userDocument{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Password:  user.HashedPassword,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := a.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, errors.Wrap(err, "insert user")
	}
	return user, nil
}

func (a *mongoAuthRepo) IsEmailOrUsernameExist(ctx context.Context, email, username string) error {
	filter := bson.M{"$or": bson.A{bson.M{"email": email}, bson.M{"username": username}}}
	count, err := a.users.CountDocuments(ctx, filter)
	if err != nil {
		return errors.Wrap(err, "count users")
	}
	if count > 0 {
		return ErrDuplicate
	}
	return nil
}

func (a *mongoAuthRepo) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDocument
	if err := a.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRecordNotFound
		}
		return nil, errors.Wrap(err, "find user")
	}
	user := doc.model()
	return &user, nil
}

func (a *mongoAuthRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return a.findOne(ctx, bson.M{"email": email})
}

func (a *mongoAuthRepo) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return a.findOne(ctx, bson.M{"_id": id})
}

func (a *mongoAuthRepo) FindUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := a.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, errors.Wrap(err, "find users")
	}
	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode users")
	}
	users := make([]models.User, len(docs))
	for i := range docs {
		users[i] = docs[i].model()
	}
	return users, nil
}
