package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/freelancehub/backend/internal/middleware"
	"github.com/freelancehub/backend/internal/models"
	"github.com/freelancehub/backend/internal/realtime"
	"github.com/freelancehub/backend/internal/services/accounting"
)

const testJWTSecret = "test_secret"

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Application{},
		&models.Message{},
	); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}

// newTestApp wires the full route table against an in-memory store. The
// notifier runs without Redis, feeding the local hub directly.
func newTestApp(t *testing.T) (*fiber.App, *gorm.DB, *realtime.Hub) {
	t.Helper()

	db := setupTestDB(t)
	hub := realtime.NewHub()
	go hub.Run()
	notifier := realtime.NewNotifier(hub, nil)
	acct := accounting.NewService(db)

	authH := &AuthHandler{DB: db, JWTSecret: testJWTSecret, Expires: 60}
	profileH := NewProfileHandler(db)
	projectH := NewProjectHandler(db, acct)
	applicationH := NewApplicationHandler(db, notifier)
	paymentH := NewPaymentHandler(db, acct, notifier)
	chatH := NewChatHandler(db, hub, notifier, testJWTSecret)

	app := fiber.New()
	api := app.Group("/api")
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)

	projects := api.Group("/projects", middleware.AuthRequired(db, testJWTSecret))
	employerOnly := middleware.RequireUserType(models.UserTypeEmployer)
	freelancerOnly := middleware.RequireUserType(models.UserTypeFreelancer)

	projects.Get("/me", profileH.Me)
	projects.Put("/update-profile", profileH.UpdateProfile)
	projects.Get("/freelancers/search", employerOnly, profileH.SearchFreelancers)

	projects.Get("/", projectH.ListOpen)
	projects.Get("/open", projectH.ListOpen)
	projects.Get("/my-projects", employerOnly, projectH.MyProjects)
	projects.Post("/create", employerOnly, projectH.Create)
	projects.Delete("/delete/:id", employerOnly, projectH.Delete)
	projects.Post("/assign-project", employerOnly, projectH.Assign)

	projects.Post("/apply", freelancerOnly, applicationH.Apply)
	projects.Get("/applications", applicationH.List)
	projects.Get("/applications/:id", applicationH.Get)
	projects.Post("/applications/:id/accept", employerOnly, applicationH.Accept)
	projects.Post("/applications/:id/reject", employerOnly, applicationH.Reject)
	projects.Post("/applications/:id/rate", employerOnly, applicationH.Rate)
	projects.Post("/applications/:id/feedback", employerOnly, applicationH.Feedback)
	projects.Get("/:projectId/applications", employerOnly, applicationH.ListForProject)

	projects.Get("/messages/:projectId", chatH.GetMessages)
	projects.Post("/messages/:projectId", chatH.PostMessage)

	projects.Post("/payment/request", freelancerOnly, paymentH.Request)
	projects.Post("/payment/pay", employerOnly, paymentH.Pay)

	return app, db, hub
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// registerUser creates an account through the API and returns its token.
func registerUser(t *testing.T, app *fiber.App, username, password string, userType models.UserType) string {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": username,
		"password": password,
		"userType": userType,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
	}
	decodeBody(t, resp, &body)
	require.NotEmpty(t, body.Token)
	return body.Token
}

func findUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	var u models.User
	require.NoError(t, db.Where("username = ?", username).First(&u).Error)
	return &u
}

func createProject(t *testing.T, app *fiber.App, token, title string, budget float64) uuid.UUID {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/api/projects/create", token, fiber.Map{
		"title":          title,
		"description":    "Build the thing",
		"budget":         budget,
		"skillsRequired": "Go, SQL",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Project struct {
			ID uuid.UUID `json:"id"`
		} `json:"project"`
	}
	decodeBody(t, resp, &body)
	require.NotEqual(t, uuid.Nil, body.Project.ID)
	return body.Project.ID
}

func applyToProject(t *testing.T, app *fiber.App, token string, projectID uuid.UUID) uuid.UUID {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/api/projects/apply", token, fiber.Map{
		"projectId":   projectID.String(),
		"coverLetter": "I can do this",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Application struct {
			ID uuid.UUID `json:"id"`
		} `json:"application"`
	}
	decodeBody(t, resp, &body)
	require.NotEqual(t, uuid.Nil, body.Application.ID)
	return body.Application.ID
}

func assignProject(t *testing.T, app *fiber.App, token string, projectID, freelancerID uuid.UUID) {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/api/projects/assign-project", token, fiber.Map{
		"projectId":    projectID.String(),
		"freelancerId": freelancerID.String(),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
