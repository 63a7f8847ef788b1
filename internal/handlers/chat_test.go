package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freelancehub/backend/internal/models"
	"github.com/freelancehub/backend/internal/realtime"
)

func TestChatMembersOnly(t *testing.T) {
	app, db, _ := newTestApp(t)

	eToken := registerUser(t, app, "poster", "secret123", models.UserTypeEmployer)
	fToken := registerUser(t, app, "worker", "secret123", models.UserTypeFreelancer)
	outsiderToken := registerUser(t, app, "outsider", "secret123", models.UserTypeFreelancer)

	projectID := createProject(t, app, eToken, "Job", 100)
	applyToProject(t, app, fToken, projectID)
	worker := findUser(t, db, "worker")
	assignProject(t, app, eToken, projectID, worker.ID)

	msgPath := fmt.Sprintf("/api/projects/messages/%s", projectID)

	// outsiders can neither write nor read
	resp := doJSON(t, app, http.MethodPost, msgPath, outsiderToken, fiber.Map{"message": "hi"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
	resp = doJSON(t, app, http.MethodGet, msgPath, outsiderToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// both members can write
	resp = doJSON(t, app, http.MethodPost, msgPath, eToken, fiber.Map{"message": "hello worker"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = doJSON(t, app, http.MethodPost, msgPath, fToken, fiber.Map{"message": "hello poster"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// empty messages rejected
	resp = doJSON(t, app, http.MethodPost, msgPath, eToken, fiber.Map{"message": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// history comes back oldest first with sender names resolved
	resp = doJSON(t, app, http.MethodGet, msgPath, fToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history []struct {
		SenderName string `json:"senderName"`
		Content    string `json:"content"`
	}
	decodeBody(t, resp, &history)
	require.Len(t, history, 2)
	assert.Equal(t, "poster", history[0].SenderName)
	assert.Equal(t, "hello worker", history[0].Content)
	assert.Equal(t, "worker", history[1].SenderName)
	assert.Equal(t, "hello poster", history[1].Content)
}

func TestChatUnknownProject(t *testing.T) {
	app, _, _ := newTestApp(t)

	token := registerUser(t, app, "someone", "secret123", models.UserTypeEmployer)

	resp := doJSON(t, app, http.MethodGet, "/api/projects/messages/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/projects/messages/6f1c8a60-0000-0000-0000-000000000000", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestChatMessageFansOutToRoom(t *testing.T) {
	app, db, hub := newTestApp(t)

	eToken := registerUser(t, app, "poster", "secret123", models.UserTypeEmployer)
	fToken := registerUser(t, app, "worker", "secret123", models.UserTypeFreelancer)

	projectID := createProject(t, app, eToken, "Job", 100)
	applyToProject(t, app, fToken, projectID)
	worker := findUser(t, db, "worker")
	assignProject(t, app, eToken, projectID, worker.ID)

	client := &realtime.Client{
		ID:     "test-client",
		UserID: worker.ID,
		Send:   make(chan []byte, 16),
	}
	hub.RegisterClient(client)
	defer hub.UnregisterClient(client)

	// registration is async; probe until the room delivers
	require.Eventually(t, func() bool {
		hub.JoinProject(client, projectID)
		hub.SendRawToProject(projectID, []byte("probe"))
		select {
		case <-client.Send:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
	for len(client.Send) > 0 {
		<-client.Send
	}

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/projects/messages/%s", projectID), eToken, fiber.Map{
		"message": "work started?",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	select {
	case payload := <-client.Send:
		var event struct {
			Event string `json:"event"`
			Data  struct {
				SenderName string `json:"senderName"`
				Content    string `json:"content"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(payload, &event))
		assert.Equal(t, realtime.EventReceiveMessage, event.Event)
		assert.Equal(t, "poster", event.Data.SenderName)
		assert.Equal(t, "work started?", event.Data.Content)
	case <-time.After(time.Second):
		t.Fatal("no realtime delivery to the project room")
	}
}
