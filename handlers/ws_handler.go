package handlers

import (
	"log/slog"
	"net/http"

	"studentquiz/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type FeedHandler struct {
	hub         *services.Hub
	quizService *services.QuizService
}

func NewFeedHandler(hub *services.Hub, quizService *services.QuizService) *FeedHandler {
	return &FeedHandler{hub: hub, quizService: quizService}
}

// QuizFeed upgrades the request and streams change events for one quiz.
func (h *FeedHandler) QuizFeed(c *gin.Context) {
	quizID, ok := pathID(c)
	if !ok {
		return
	}

	if _, err := h.quizService.QuizOwner(c.Request.Context(), quizID); err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "quiz_id", quizID, "error", err)
		return
	}

	h.hub.RegisterClient(conn, quizID, currentUser(c))
}
