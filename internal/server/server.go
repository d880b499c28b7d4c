// Package server exposes the chat pipeline over HTTP. One POST endpoint
// carries every turn; the response shape (streamed text, file download or
// JSON envelope) follows the outcome variant the agent produced.
package server

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/theboatbrokers/brokerchat/internal/agent"
	"github.com/theboatbrokers/brokerchat/internal/brochure"
	"github.com/theboatbrokers/brokerchat/internal/logger"
	"github.com/theboatbrokers/brokerchat/internal/store"
)

// Responder runs one conversational turn. Satisfied by *agent.Agent.
type Responder interface {
	Process(ctx context.Context, sessionID, userText string) (agent.Outcome, error)
}

// chatRequest is the POST /chat body. session_id is optional; turns
// without one share the "admin" session.
type chatRequest struct {
	SessionID string `json:"session_id"`
	UserInput string `json:"user_input"`
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(resp Responder) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Brokerchat API is running."})
	})
	router.POST("/chat", handleChat(resp))

	return router
}

// cors is deliberately permissive: the API sits behind the admin panel's
// reverse proxy and is not internet-facing.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func handleChat(resp Responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req chatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if strings.TrimSpace(req.UserInput) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_input is required"})
			return
		}
		if req.SessionID == "" {
			req.SessionID = "admin"
		}

		out, err := resp.Process(c.Request.Context(), req.SessionID, req.UserInput)
		if err != nil {
			writeProcessError(c, err)
			return
		}

		switch {
		case out.Stream != nil:
			streamResponse(c, out)
		case out.FilePath != "":
			c.FileAttachment(out.FilePath, filepath.Base(out.FilePath))
		default:
			c.JSON(http.StatusOK, gin.H{
				"type":    out.Intent.String(),
				"message": out.Message,
			})
		}
	}
}

// streamResponse forwards oracle fragments as they arrive. Once the first
// fragment is written the status line is committed, so a mid-stream
// failure can only be logged, not turned into an error status.
func streamResponse(c *gin.Context, out agent.Outcome) {
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Status(http.StatusOK)

	flusher, _ := c.Writer.(http.Flusher)
	err := out.Stream(func(fragment string) error {
		if _, werr := c.Writer.WriteString(fragment); werr != nil {
			return werr
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err != nil {
		logger.L.Error("response stream aborted", "error", err)
	}
}

func writeProcessError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, brochure.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrConnection):
		logger.L.Error("database unreachable", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "database is unreachable, try again shortly"})
	default:
		logger.L.Error("chat turn failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong processing your message"})
	}
}
