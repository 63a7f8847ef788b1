package handlers

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freelancehub/backend/internal/models"
	"github.com/freelancehub/backend/internal/utils"
)

func TestRegisterAndLogin(t *testing.T) {
	app, db, _ := newTestApp(t)

	token := registerUser(t, app, "alice", "secret123", models.UserTypeFreelancer)

	claims, err := utils.ParseJWT(testJWTSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "freelancer", claims.UserType)

	u := findUser(t, db, "alice")
	assert.Equal(t, models.UserTypeFreelancer, u.UserType)
	assert.NotEqual(t, "secret123", u.Password, "password must be stored hashed")
	assert.NotNil(t, []string(u.Skills))

	resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"username": "alice",
		"password": "secret123",
		"userType": "freelancer",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Token    string `json:"token"`
		UserType string `json:"userType"`
	}
	decodeBody(t, resp, &body)
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, "freelancer", body.UserType)
}

func TestRegisterValidation(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": "bob",
		"password": "",
		"userType": "employer",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": "bob",
		"password": "secret123",
		"userType": "admin",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestRegisterDuplicateUsername(t *testing.T) {
	app, _, _ := newTestApp(t)

	registerUser(t, app, "carol", "secret123", models.UserTypeEmployer)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": "carol",
		"password": "other456",
		"userType": "freelancer",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var body models.ErrorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "Username already exists", body.Message)
}

func TestLoginFailures(t *testing.T) {
	app, _, _ := newTestApp(t)

	registerUser(t, app, "dave", "secret123", models.UserTypeFreelancer)

	// unknown user
	resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"username": "nobody",
		"password": "secret123",
		"userType": "freelancer",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// wrong role
	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"username": "dave",
		"password": "secret123",
		"userType": "employer",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// wrong password
	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"username": "dave",
		"password": "wrongpass",
		"userType": "freelancer",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/projects/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/projects/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}
