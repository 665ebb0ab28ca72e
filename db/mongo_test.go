package db

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/portoviejo/incidentes/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real server only when INCIDENTES_TEST_MONGO_URI is set.
func newTestMongo(t *testing.T) *MongoDB {
	t.Helper()
	uri := os.Getenv("INCIDENTES_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("INCIDENTES_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	m, err := NewMongoDB(ctx, uri, "incidentes_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx := context.Background()
		_ = m.DB.Drop(ctx)
		_ = m.Close(ctx)
	})
	return m
}

func TestMongo_AuthRepo(t *testing.T) {
	m := newTestMongo(t)
	repo := NewMongoAuthRepo(m)
	ctx := context.Background()

	ana := createUser(t, repo, "ana")
	assert.ErrorIs(t, repo.IsEmailOrUsernameExist(ctx, "ana@example.com", "x"), ErrDuplicate)

	_, err := repo.CreateUser(ctx, &models.User{Username: "ana", Email: "otra@example.com", HashedPassword: "h"})
	assert.ErrorIs(t, err, ErrDuplicate)

	found, err := repo.FindUserByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, ana.ID, found.ID)

	_, err = repo.FindUserByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestMongo_IncidentRepo(t *testing.T) {
	m := newTestMongo(t)
	users := NewMongoAuthRepo(m)
	repo := NewMongoIncidentRepo(m)
	ctx := context.Background()

	ana := createUser(t, users, "ana")
	first := createIncident(t, repo, ana.ID, models.TypeBache)
	time.Sleep(2 * time.Millisecond)
	second := createIncident(t, repo, ana.ID, models.TypeOtro)

	list, err := repo.ListIncidents(ctx, models.IncidentFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	filtered, err := repo.ListIncidents(ctx, models.IncidentFilter{Type: models.TypeBache})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, first.ID, filtered[0].ID)

	liked, err := repo.ToggleLike(ctx, first.ID, ana.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	liked, err = repo.ToggleLike(ctx, first.ID, ana.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	_, err = repo.ToggleLike(ctx, "missing", ana.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	comment, err := repo.AddComment(ctx, &models.Comment{Text: "Hola", IncidentID: first.ID, AuthorID: ana.ID})
	require.NoError(t, err)
	found, err := repo.FindIncidentByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{comment.ID}, found.CommentIDs)

	_, err = repo.AddComment(ctx, &models.Comment{Text: "Hola", IncidentID: "missing", AuthorID: ana.ID})
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestMongo_ConcurrentToggles(t *testing.T) {
	m := newTestMongo(t)
	users := NewMongoAuthRepo(m)
	repo := NewMongoIncidentRepo(m)
	ctx := context.Background()

	ana := createUser(t, users, "ana")
	incident := createIncident(t, repo, ana.ID, models.TypeBache)

	var wg sync.WaitGroup
	for i := 0; i < 9; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.ToggleLike(ctx, incident.ID, ana.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	found, err := repo.FindIncidentByID(ctx, incident.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{ana.ID}, found.Likes)
}
