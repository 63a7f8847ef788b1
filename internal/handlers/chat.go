package handlers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freelancehub/backend/internal/middleware"
	"github.com/freelancehub/backend/internal/models"
	"github.com/freelancehub/backend/internal/realtime"
	"github.com/freelancehub/backend/internal/utils"
)

type ChatHandler struct {
	DB        *gorm.DB
	Hub       *realtime.Hub
	Notifier  *realtime.Notifier
	JWTSecret string
}

func NewChatHandler(db *gorm.DB, hub *realtime.Hub, notifier *realtime.Notifier, jwtSecret string) *ChatHandler {
	return &ChatHandler{DB: db, Hub: hub, Notifier: notifier, JWTSecret: jwtSecret}
}

type messageOut struct {
	ID         uuid.UUID `json:"id"`
	ProjectID  uuid.UUID `json:"projectId"`
	SenderID   uuid.UUID `json:"senderId"`
	SenderName string    `json:"senderName,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

func toMessageOut(m *models.Message, senderName string) messageOut {
	return messageOut{
		ID:         m.ID,
		ProjectID:  m.ProjectID,
		SenderID:   m.SenderID,
		SenderName: senderName,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
	}
}

// isProjectMember reports whether the user is the project's poster or its
// assignee; only members may read or write project chat.
func isProjectMember(project *models.Project, userID uuid.UUID) bool {
	if project.PostedByID == userID {
		return true
	}
	return project.AssignedToID != nil && *project.AssignedToID == userID
}

// GetMessages returns a project's chat history, oldest first.
func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	projectID, err := uuid.Parse(c.Params("projectId"))
	if err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid project ID"))
	}

	var project models.Project
	if err := h.DB.First(&project, "id = ?", projectID).Error; err != nil {
		return models.RespondWithError(c, models.NewNotFoundError("Project not found"))
	}
	if !isProjectMember(&project, user.ID) {
		return models.RespondWithError(c, models.NewForbiddenError("Not authorized"))
	}

	var messages []models.Message
	if err := h.DB.Preload("Sender").
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	out := make([]messageOut, 0, len(messages))
	for i := range messages {
		senderName := ""
		if messages[i].Sender != nil {
			senderName = messages[i].Sender.Username
		}
		out = append(out, toMessageOut(&messages[i], senderName))
	}
	return c.JSON(out)
}

// SendMessage validates membership, persists the message and fans it out.
// The HTTP layer and the websocket layer both come through here, so
// channel-originated writes get the exact same checks.
func (h *ChatHandler) SendMessage(ctx context.Context, sender *models.User, projectID uuid.UUID, content string) (*models.Message, error) {
	if content == "" {
		return nil, models.NewValidationError("Message text is required")
	}

	var project models.Project
	if err := h.DB.First(&project, "id = ?", projectID).Error; err != nil {
		return nil, models.NewNotFoundError("Project not found")
	}
	if !isProjectMember(&project, sender.ID) {
		return nil, models.NewForbiddenError("Not authorized")
	}

	message := models.Message{
		ProjectID: projectID,
		SenderID:  sender.ID,
		Content:   content,
	}
	if err := h.DB.Create(&message).Error; err != nil {
		return nil, err
	}

	h.Notifier.PublishProject(ctx, projectID, realtime.EventReceiveMessage, toMessageOut(&message, sender.Username))
	return &message, nil
}

type wsInbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type wsJoinProject struct {
	ProjectID string `json:"projectId"`
}

type wsSendMessage struct {
	ProjectID string `json:"projectId"`
	Message   string `json:"message"`
}

// WebSocketHandler runs one realtime connection. The socket authenticates
// with the same signed token as HTTP (query parameter, since browsers cannot
// set headers on websocket dials); the sender identity always comes from the
// token, never from event payloads.
func (h *ChatHandler) WebSocketHandler(c *websocket.Conn) {
	claims, err := utils.ParseJWT(h.JWTSecret, c.Query("token"))
	if err != nil {
		log.Println("WebSocket: invalid token:", err)
		c.Close()
		return
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.Close()
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		log.Println("WebSocket: unknown user:", userID)
		c.Close()
		return
	}

	client := &realtime.Client{
		ID:     uuid.New().String(),
		UserID: user.ID,
		Send:   make(chan []byte, 256),
	}

	h.Hub.RegisterClient(client)
	defer h.Hub.UnregisterClient(client)

	// Write pump: hub -> socket.
	go func() {
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Println("WebSocket write error:", err)
				return
			}
		}
	}()

	for {
		var inbound wsInbound
		if err := c.ReadJSON(&inbound); err != nil {
			log.Printf("WebSocket read error for user %s: %v", user.ID, err)
			break
		}

		switch inbound.Event {
		case "join_project":
			var join wsJoinProject
			if err := json.Unmarshal(inbound.Data, &join); err != nil {
				continue
			}
			projectID, err := uuid.Parse(join.ProjectID)
			if err != nil {
				continue
			}
			var project models.Project
			if err := h.DB.First(&project, "id = ?", projectID).Error; err != nil {
				continue
			}
			if !isProjectMember(&project, user.ID) {
				log.Printf("WebSocket: user %s denied join to project %s", user.ID, projectID)
				continue
			}
			h.Hub.JoinProject(client, projectID)

		case "send_message":
			var send wsSendMessage
			if err := json.Unmarshal(inbound.Data, &send); err != nil {
				continue
			}
			projectID, err := uuid.Parse(send.ProjectID)
			if err != nil {
				continue
			}
			if _, err := h.SendMessage(context.Background(), &user, projectID, send.Message); err != nil {
				log.Printf("WebSocket: send_message rejected for user %s: %v", user.ID, err)
			}

		default:
			// ignore pings and unknown events
		}
	}
}

// PostMessage is the HTTP twin of the websocket send_message event.
func (h *ChatHandler) PostMessage(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	projectID, err := uuid.Parse(c.Params("projectId"))
	if err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid project ID"))
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid body"))
	}

	message, err := h.SendMessage(c.Context(), user, projectID, req.Message)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(toMessageOut(message, user.Username))
}
