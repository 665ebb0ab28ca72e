package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/portoviejo/incidentes/config"
	"github.com/portoviejo/incidentes/db"
	"github.com/portoviejo/incidentes/services"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type memoryImageStore struct{}

func (memoryImageStore) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	return "https://cdn.example.com/" + key, nil
}

type testServer struct {
	*Server
	router http.Handler
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	conf := &config.Config{
		JWTSecret:    "server-test-secret",
		JWTExpiry:    time.Hour,
		BcryptCost:   bcrypt.MinCost,
		ImageFolder:  "incidentes-test",
		MaxImageSize: 1 << 20,
	}
	for _, fn := range mutate {
		fn(conf)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gormDB, err := db.NewGormDB(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = gormDB.Close(context.Background()) })

	authRepo := db.NewAuthRepo(gormDB)
	incidentRepo := db.NewIncidentRepo(gormDB)
	query := db.NewIncidentQuery(authRepo, incidentRepo)
	media := services.NewMediaService(memoryImageStore{}, conf)

	s := &Server{
		Config:          conf,
		DB:              gormDB,
		AuthRepository:  authRepo,
		AuthService:     services.NewAuthService(authRepo, conf),
		IncidentService: services.NewIncidentService(incidentRepo, query, media, conf),
		LikeService:     services.NewLikeService(incidentRepo, query, conf),
	}
	return &testServer{Server: s, router: s.Router()}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) postJSON(t *testing.T, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return ts.do(t, http.MethodPost, path, token, bytes.NewReader(data), "application/json")
}

func (ts *testServer) register(t *testing.T, username string) string {
	t.Helper()
	rec := ts.postJSON(t, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@x.com",
		"password": "pw123456",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var body struct {
		Token string `json:"token"`
	}
	decodeBody(t, rec, &body)
	require.NotEmpty(t, body.Token)
	return body.Token
}

func (ts *testServer) createIncident(t *testing.T, token string, fields map[string]string, withImage bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if withImage {
		part, err := w.CreateFormFile("image", "foto.png")
		require.NoError(t, err)
		_, err = part.Write(testPNG(t))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return ts.do(t, http.MethodPost, "/api/incidentes", token, &buf, w.FormDataContentType())
}

func reportFields(tipo string) map[string]string {
	return map[string]string{
		"descripcion":   "Hueco frente al parque",
		"tipoIncidente": tipo,
		"latitud":       "-1.0546",
		"longitud":      "-80.4545",
	}
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for x := 0; x < 32; x++ {
		for y := 0; y < 24; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 10), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

// doHeader sends the Authorization header verbatim.
func (ts *testServer) doHeader(t *testing.T, method, path, header string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) incidentID(t *testing.T, token string) string {
	t.Helper()
	rec := ts.createIncident(t, token, reportFields("Bache"), true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var body struct {
		Data struct {
			ID string `json:"_id"`
		} `json:"data"`
	}
	decodeBody(t, rec, &body)
	require.NotEmpty(t, body.Data.ID)
	return body.Data.ID
}

func httptestServe(s *Server, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}
