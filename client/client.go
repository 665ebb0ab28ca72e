package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/portoviejo/incidentes/models"
)

// ErrNotAuthenticated is returned, without a network call, by calls that
// need a session while there is none.
var ErrNotAuthenticated = errors.New("not authenticated")

// APIError is an error envelope returned by the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Client is a typed client of the incidents API. The bearer token is taken
// from Session on every request.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Session    *Session
}

func New(baseURL string, session *Session) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Session:    session,
	}
}

// NewIncident is the report form.
type NewIncident struct {
	Description string
	Type        models.IncidentType
	Latitude    float64
	Longitude   float64
	ImageName   string
	Image       io.Reader
}

func (c *Client) Register(ctx context.Context, username, email, password string) error {
	var resp models.TokenResponse
	body := models.RegisterRequest{Username: username, Email: email, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", false, body, &resp); err != nil {
		return err
	}
	return c.Session.Establish(resp.Token)
}

func (c *Client) Login(ctx context.Context, email, password string) error {
	var resp models.TokenResponse
	body := models.LoginRequest{Email: email, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", false, body, &resp); err != nil {
		return err
	}
	return c.Session.Establish(resp.Token)
}

func (c *Client) Logout() error {
	return c.Session.Logout()
}

// ListIncidents returns the feed, filtered by tipo unless it is empty or "Todos".
func (c *Client) ListIncidents(ctx context.Context, tipo string) ([]models.IncidentView, error) {
	path := "/api/incidentes"
	if !models.IsFilterAll(tipo) {
		path += "?" + url.Values{"tipo": {tipo}}.Encode()
	}
	var incidents []models.IncidentView
	if err := c.doJSON(ctx, http.MethodGet, path, false, nil, &incidents); err != nil {
		return nil, err
	}
	return incidents, nil
}

func (c *Client) GetIncident(ctx context.Context, id string) (*models.IncidentDetail, error) {
	var detail models.IncidentDetail
	if err := c.doJSON(ctx, http.MethodGet, "/api/incidentes/"+url.PathEscape(id), false, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *Client) MyIncidents(ctx context.Context) ([]models.IncidentDetail, error) {
	var incidents []models.IncidentDetail
	if err := c.doJSON(ctx, http.MethodGet, "/api/incidentes/mis-reportes", true, nil, &incidents); err != nil {
		return nil, err
	}
	return incidents, nil
}

func (c *Client) CreateIncident(ctx context.Context, incident NewIncident) (*models.StoredIncident, error) {
	if c.Session.State() != Authenticated {
		return nil, ErrNotAuthenticated
	}
	if strings.TrimSpace(incident.Description) == "" {
		return nil, errors.New("a description is required")
	}
	if !incident.Type.Valid() {
		return nil, errors.Errorf("unknown incident type %q", incident.Type)
	}
	if incident.Image == nil {
		return nil, errors.New("an image is required")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"descripcion", incident.Description},
		{"tipoIncidente", string(incident.Type)},
		{"latitud", strconv.FormatFloat(incident.Latitude, 'f', -1, 64)},
		{"longitud", strconv.FormatFloat(incident.Longitude, 'f', -1, 64)},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, errors.Wrap(err, "write form")
		}
	}
	name := incident.ImageName
	if name == "" {
		name = "photo.jpg"
	}
	part, err := w.CreateFormFile("image", name)
	if err != nil {
		return nil, errors.Wrap(err, "write form")
	}
	if _, err := io.Copy(part, incident.Image); err != nil {
		return nil, errors.Wrap(err, "read image")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "write form")
	}

	var resp struct {
		Data *models.StoredIncident `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/incidentes", true, &buf, w.FormDataContentType(), &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) AddComment(ctx context.Context, incidentID, text string) (*models.CommentView, error) {
	var comment models.CommentView
	body := models.CreateCommentRequest{Text: text}
	path := "/api/incidentes/" + url.PathEscape(incidentID) + "/comentarios"
	if err := c.doJSON(ctx, http.MethodPost, path, true, body, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *Client) ToggleLike(ctx context.Context, incidentID string) (*models.IncidentDetail, error) {
	var detail models.IncidentDetail
	path := "/api/incidentes/" + url.PathEscape(incidentID) + "/like"
	if err := c.doJSON(ctx, http.MethodPost, path, true, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, auth bool, in, out interface{}) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, auth, body, contentType, out)
}

func (c *Client) do(ctx context.Context, method, path string, auth bool, body io.Reader, contentType string, out interface{}) error {
	token := ""
	if auth {
		token = c.Session.Token()
		if token == "" {
			return ErrNotAuthenticated
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := decodeError(resp)
		if auth && resp.StatusCode == http.StatusUnauthorized {
			log.Printf("client: %s %s rejected the session, logging out", method, path)
			if err := c.Session.Logout(); err != nil {
				log.Printf("client: logout failed: %v", err)
			}
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

func decodeError(resp *http.Response) *APIError {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	apiErr := &APIError{Status: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if json.Unmarshal(data, &envelope) == nil {
		apiErr.Message = envelope.Message
		if apiErr.Message == "" {
			apiErr.Message = envelope.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
