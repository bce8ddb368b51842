package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hamas2/hamak/database"
	"github.com/hamas2/hamak/middleware"
	"github.com/hamas2/hamak/service"
	"github.com/hamas2/hamak/storage"
	"github.com/sirupsen/logrus"
)

// TokenIssuer signs session tokens for newly registered users.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// Handler serves the JSON API.
type Handler struct {
	svc    *service.Service
	tokens TokenIssuer
	limits storage.Limits

	requestTimeout time.Duration
	uploadTimeout  time.Duration
}

type Options struct {
	Limits         storage.Limits
	RequestTimeout time.Duration
	UploadTimeout  time.Duration
}

func New(svc *service.Service, tokens TokenIssuer, opts Options) *Handler {
	h := &Handler{
		svc:            svc,
		tokens:         tokens,
		limits:         opts.Limits,
		requestTimeout: opts.RequestTimeout,
		uploadTimeout:  opts.UploadTimeout,
	}
	if h.limits == (storage.Limits{}) {
		h.limits = storage.Limits{MaxVideoBytes: 100 << 20, MaxImageBytes: 10 << 20}
	}
	if h.requestTimeout <= 0 {
		h.requestTimeout = 10 * time.Second
	}
	if h.uploadTimeout <= 0 {
		h.uploadTimeout = 2 * time.Minute
	}
	return h
}

func (h *Handler) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.requestTimeout)
}

func (h *Handler) uploadCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.uploadTimeout)
}

func sessionUser(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}

// requestError marks a malformed request.
type requestError struct{ err error }

func (e requestError) Error() string { return e.err.Error() }
func (e requestError) Unwrap() error { return e.err }

func badRequest(err error) error {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return err
	}
	return requestError{err}
}

// statusFor maps service and store errors to HTTP statuses.
func statusFor(err error) int {
	var (
		maxBytes *http.MaxBytesError
		reqErr   requestError
	)
	switch {
	case errors.As(err, &reqErr),
		errors.Is(err, service.ErrEmptyText),
		errors.Is(err, service.ErrEmptyName),
		errors.Is(err, service.ErrEmptyDescription),
		errors.Is(err, service.ErrNoFile),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, database.ErrInvalidPath):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotSignedIn),
		errors.Is(err, service.ErrUnknownUser):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrFileTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": ...}. Internal errors are logged and
// replaced by a generic message.
func respondError(c *gin.Context, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logrus.WithError(err).WithField("op", op).Error("request failed")
		c.JSON(status, gin.H{"error": "Failed to " + op})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
