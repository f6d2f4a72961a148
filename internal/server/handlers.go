package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mwiater/nabin/internal/assistant"
	"github.com/mwiater/nabin/internal/catalog"
	"github.com/mwiater/nabin/internal/chat"
	"github.com/mwiater/nabin/internal/rag"
	"github.com/mwiater/nabin/internal/rag/store"
)

type messageRequest struct {
	Message string `json:"message" binding:"required"`
}

type messageResponse struct {
	Answer  string              `json:"answer"`
	Result  rag.RetrievalResult `json:"result"`
	Context string              `json:"context"`
	Session chat.Snapshot       `json:"session"`
}

type searchResponse struct {
	rag.RetrievalResult
	Context string `json:"context"`
}

func (s *Server) handleHealth(c *gin.Context) {
	stats, err := s.pipeline.Index().Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"index":    stats,
		"provider": s.pipeline.Assistant().Provider(),
		"ready":    s.pipeline.Assistant().Ready(),
		"sessions": s.sessions.Len(),
	})
}

func (s *Server) handleCreateSession(c *gin.Context) {
	session := s.sessions.Create()
	c.JSON(http.StatusCreated, session.Snapshot())
}

func (s *Server) session(c *gin.Context) (*chat.Session, bool) {
	session, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	}
	return session, ok
}

func (s *Server) handleGetSession(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	if !s.sessions.Delete(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAsk(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	reply, err := s.pipeline.Ask(c.Request.Context(), session, req.Message)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "session": session.Snapshot()})
		return
	}
	c.JSON(http.StatusOK, messageResponse{
		Answer:  reply.Answer,
		Result:  reply.Result,
		Context: reply.Context,
		Session: session.Snapshot(),
	})
}

func (s *Server) handleClear(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	session.Clear()
	c.JSON(http.StatusOK, session.Snapshot())
}

func (s *Server) handleReindex(c *gin.Context) {
	n, msg := s.pipeline.Reindex(c.Request.Context())
	status := http.StatusOK
	if msg != catalog.SuccessMessage {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"count": n, "message": msg})
}

func (s *Server) handleSearch(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	k := 0
	if raw := c.Query("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "k must be a positive integer"})
			return
		}
		k = parsed
	}

	result, err := s.pipeline.Search(c.Request.Context(), query, k)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	if result.Hits == nil {
		result.Hits = []store.Hit{}
	}
	c.JSON(http.StatusOK, searchResponse{RetrievalResult: result, Context: rag.Assemble(result)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, rag.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, assistant.ErrMissingCredential):
		return http.StatusServiceUnavailable
	case errors.Is(err, assistant.ErrProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
