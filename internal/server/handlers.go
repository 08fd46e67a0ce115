package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrz1836/skillmint/internal/catalog"
	"github.com/mrz1836/skillmint/internal/output"
	"github.com/mrz1836/skillmint/internal/view"
	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

// selectRequest is the body of POST /api/wallet/select.
type selectRequest struct {
	Index *int `json:"index" binding:"required"`
}

func (s *Server) page(c *gin.Context) {
	c.HTML(http.StatusOK, view.PageTemplate, view.Render(s.store.Snapshot()))
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

func (s *Server) state(c *gin.Context) {
	c.JSON(http.StatusOK, view.Render(s.store.Snapshot()))
}

func (s *Server) connect(c *gin.Context) {
	if err := s.store.Connect(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	s.state(c)
}

func (s *Server) refresh(c *gin.Context) {
	if err := s.store.Refresh(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	s.state(c)
}

func (s *Server) purchase(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		s.fail(c, storeerr.WithDetails(storeerr.ErrInvalidInput, map[string]string{"course": c.Param("id")}))
		return
	}
	if err := s.store.StartPurchase(catalog.ItemID(id)); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"status": "submitted",
		"course": id,
	})
}

func (s *Server) selectAccount(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, storeerr.WithCause(storeerr.ErrInvalidInput, err))
		return
	}
	if err := s.store.SelectAccount(c.Request.Context(), *req.Index); err != nil {
		s.fail(c, err)
		return
	}
	s.state(c)
}

func (s *Server) lock(c *gin.Context) {
	if err := s.store.LockWallet(); err != nil {
		s.fail(c, err)
		return
	}
	s.state(c)
}

// fail writes err as a structured JSON error.
func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, output.ErrorOutput{Error: output.Describe(err)})
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch storeerr.ExitCode(err) {
	case storeerr.ExitInput:
		return http.StatusBadRequest
	case storeerr.ExitRejected:
		return http.StatusForbidden
	case storeerr.ExitNotFound:
		return http.StatusNotFound
	case storeerr.ExitConflict:
		return http.StatusConflict
	case storeerr.ExitUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
