package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestParseIncidentType(t *testing.T) {
	for _, known := range IncidentTypes {
		got, ok := ParseIncidentType(" " + string(known) + " ")
		assert.True(t, ok, known)
		assert.Equal(t, known, got)
	}
	_, ok := ParseIncidentType("Incendio")
	assert.False(t, ok)
	_, ok = ParseIncidentType(FilterAll)
	assert.False(t, ok)
}

func TestIsFilterAll(t *testing.T) {
	assert.True(t, IsFilterAll(""))
	assert.True(t, IsFilterAll("Todos"))
	assert.True(t, IsFilterAll("all"))
	assert.False(t, IsFilterAll("Bache"))
}

func TestRegisterRequestNormalizes(t *testing.T) {
	req := &RegisterRequest{Username: "  ana ", Email: " Ana@X.com ", Password: "pw123456"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "ana", req.Username)
	assert.Equal(t, "ana@x.com", req.Email)
}

func TestRegisterRequestRejects(t *testing.T) {
	cases := map[string]RegisterRequest{
		"missing username": {Email: "a@x.com", Password: "pw123456"},
		"bad email":        {Username: "ana", Email: "not-an-email", Password: "pw123456"},
		"short password":   {Username: "ana", Email: "a@x.com", Password: "pw1"},
		"missing password": {Username: "ana", Email: "a@x.com"},
	}
	for name, req := range cases {
		req := req
		t.Run(name, func(t *testing.T) {
			assert.Error(t, req.Validate())
		})
	}
}

func TestValidationMessagesUseWireNames(t *testing.T) {
	req := &CreateIncidentRequest{Type: "Bache"}
	_, err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "descripcion")
}

func TestCreateIncidentRequest(t *testing.T) {
	lat, lon := -1.05, -80.45
	req := &CreateIncidentRequest{Description: "hueco grande", Type: "Bache", Latitude: &lat, Longitude: &lon}
	typ, err := req.Validate()
	require.NoError(t, err)
	assert.Equal(t, TypeBache, typ)

	req = &CreateIncidentRequest{Description: "   ", Type: "Bache"}
	_, err = req.Validate()
	assert.Error(t, err)

	req = &CreateIncidentRequest{Description: "x", Type: "Incendio", Latitude: &lat, Longitude: &lon}
	_, err = req.Validate()
	assert.Error(t, err)

	far := 120.0
	req = &CreateIncidentRequest{Description: "x", Type: "Bache", Latitude: &far, Longitude: &lon}
	_, err = req.Validate()
	assert.Error(t, err)

	req = &CreateIncidentRequest{Description: "Hueco", Type: "Bache"}
	_, err = req.Validate()
	assert.Error(t, err, "location is required")

	zero := 0.0
	req = &CreateIncidentRequest{Description: "Hueco", Type: "Bache", Latitude: &zero, Longitude: &zero}
	_, err = req.Validate()
	assert.NoError(t, err)
}

func TestCreateCommentRequestWhitespace(t *testing.T) {
	req := &CreateCommentRequest{Text: " \t\n "}
	assert.Error(t, req.Validate())
}

func TestVerifyPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("pw123456"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &User{ID: "u1", Username: "ana", Email: "ana@x.com", HashedPassword: string(hash)}
	assert.NoError(t, u.VerifyPassword("pw123456"))
	assert.Error(t, u.VerifyPassword("wrong"))
	assert.Equal(t, UserRef{ID: "u1", Username: "ana"}, u.Public())
}

func TestIncidentDetailHelpers(t *testing.T) {
	d := &IncidentDetail{
		Likes:    []UserRef{{ID: "u1"}},
		Comments: []CommentView{{ID: "c1"}},
	}
	assert.True(t, d.LikedBy("u1"))
	assert.False(t, d.LikedBy("u2"))

	d.PrependComment(CommentView{ID: "c2"})
	require.Len(t, d.Comments, 2)
	assert.Equal(t, "c2", d.Comments[0].ID)
}

func TestNewStoredIncident(t *testing.T) {
	s := NewStoredIncident(&Incident{ID: "i1", Longitude: -80.4, Latitude: -1.0, AuthorID: "u1"})
	assert.Equal(t, [2]float64{-80.4, -1.0}, s.Location.Coordinates)
	assert.Equal(t, "Point", s.Location.Type)
	assert.NotNil(t, s.Likes)
	assert.NotNil(t, s.Comments)
}
