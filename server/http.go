// Package server exposes the workflow engine over HTTP. It is strictly a
// projection layer: every mutation goes through the engine's operations,
// and the bearer token is lifted from the request and passed through
// explicitly — the server never stores it.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/plancraft/plancraft/backend"
	"github.com/plancraft/plancraft/endpoint"
	"github.com/plancraft/plancraft/transform"
	"github.com/plancraft/plancraft/validation"
	"github.com/plancraft/plancraft/workflow"
)

type Server struct {
	sessions *Sessions
	l        *slog.Logger
}

func New(sessions *Sessions, l *slog.Logger) *Server {
	return &Server{sessions: sessions, l: l}
}

func (s *Server) Register(g *gin.Engine) {
	g.POST("/sessions", s.createSession)
	g.GET("/sessions/:id", s.getSession)
	g.POST("/sessions/:id/fields", s.updateField)
	g.POST("/sessions/:id/advance", s.advance)
	g.POST("/sessions/:id/back", s.back)
	g.POST("/sessions/:id/reset", s.reset)
}

func (s *Server) createSession(c *gin.Context) {
	id, engine := s.sessions.Create()
	s.l.Info("session created", "session", id)
	c.JSON(http.StatusCreated, engine.Projection())
}

func (s *Server) getSession(c *gin.Context) {
	engine, ok := s.engineFor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, engine.Projection())
}

type updateFieldRequest struct {
	StepID  string `json:"stepId" binding:"required"`
	FieldID string `json:"fieldId" binding:"required"`
	Value   any    `json:"value"`
}

func (s *Server) updateField(c *gin.Context) {
	engine, ok := s.engineFor(c)
	if !ok {
		return
	}

	var req updateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "wrong request body format"})
		return
	}

	result, err := engine.UpdateField(c.Request.Context(), req.StepID, req.FieldID, req.Value)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result":     result,
		"projection": engine.Projection(),
	})
}

func (s *Server) advance(c *gin.Context) {
	engine, ok := s.engineFor(c)
	if !ok {
		return
	}

	result, err := engine.Advance(c.Request.Context(), bearerToken(c))
	if err != nil {
		s.renderError(c, err)
		return
	}

	if !result.Valid {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"result":     result,
			"projection": engine.Projection(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result":     result,
		"projection": engine.Projection(),
	})
}

func (s *Server) back(c *gin.Context) {
	engine, ok := s.engineFor(c)
	if !ok {
		return
	}

	if err := engine.Back(c.Request.Context()); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, engine.Projection())
}

func (s *Server) reset(c *gin.Context) {
	engine, ok := s.engineFor(c)
	if !ok {
		return
	}

	engine.Reset(c.Request.Context())
	c.JSON(http.StatusOK, engine.Projection())
}

func (s *Server) engineFor(c *gin.Context) (*workflow.Engine, bool) {
	id := c.Param("id")
	engine, err := s.sessions.Get(c.Request.Context(), id)
	if err != nil {
		if IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"message": "session not found"})
		} else {
			s.l.Error("session lookup failed", "session", id, "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"message": "error loading session"})
		}
		return nil, false
	}
	return engine, true
}

// renderError maps engine and backend failures onto HTTP statuses.
// Validation failures are not errors and never reach this path.
func (s *Server) renderError(c *gin.Context, err error) {
	var (
		unknownStep  *workflow.UnknownStepError
		unknownField *workflow.UnknownFieldError
		netErr       *backend.NetworkError
		envelope     *backend.ErrorEnvelope
		unparsed     *backend.UnparsedBackendError
		mismatch     *transform.ShapeMismatchError
		unknownOp    *endpoint.UnknownOperationError
		missingParam *endpoint.MissingParameterError
	)

	switch {
	case errors.As(err, &unknownStep), errors.As(err, &unknownField):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, workflow.ErrCompleted),
		errors.Is(err, workflow.ErrNotStarted),
		errors.Is(err, workflow.ErrAtFirstStep):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	case errors.Is(err, validation.ErrStaleResult):
		// superseded by a newer request for the same slot; the caller
		// already has (or will get) the newer outcome
		c.JSON(http.StatusConflict, gin.H{"message": "request superseded"})
	case errors.Is(err, backend.ErrAuthRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
	case errors.As(err, &netErr), errors.As(err, &envelope), errors.As(err, &unparsed), errors.As(err, &mismatch):
		s.l.Error("backend failure", "error", err.Error())
		c.JSON(http.StatusBadGateway, gin.H{"message": err.Error()})
	case errors.As(err, &unknownOp), errors.As(err, &missingParam):
		// catalog/config bug; fail loudly
		s.l.Error("endpoint resolution failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
	default:
		s.l.Error("unhandled engine error", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}
