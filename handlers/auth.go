package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hamas2/hamak/models"
	"github.com/hamas2/hamak/service"
	"github.com/hamas2/hamak/storage"
)

type RegisterRequest struct {
	Name      string   `json:"name" form:"name"`
	Bio       string   `json:"bio" form:"bio"`
	Gender    string   `json:"gender" form:"gender"`
	Latitude  *float64 `json:"latitude,omitempty" form:"latitude"`
	Longitude *float64 `json:"longitude,omitempty" form:"longitude"`
}

// Register creates a user from JSON or from a multipart form with an
// optional profilePic file, and returns the user with a session token.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	var picture *storage.File

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.limits.MaxImageBytes+1<<20)
		if err := c.ShouldBind(&req); err != nil {
			respondError(c, "parse form data", badRequest(err))
			return
		}
		fh, err := c.FormFile("profilePic")
		if err != nil && err != http.ErrMissingFile {
			respondError(c, "read profile picture", badRequest(err))
			return
		}
		if fh != nil {
			f, closer, err := openUpload(fh)
			if err != nil {
				respondError(c, "read profile picture", err)
				return
			}
			defer closer.Close()
			picture = f
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reg := service.Registration{Name: req.Name, Bio: req.Bio, Gender: req.Gender, Picture: picture}
	if req.Latitude != nil && req.Longitude != nil {
		reg.Location = &models.Location{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}

	ctx, cancel := h.uploadCtx(c)
	defer cancel()

	user, err := h.svc.Register(ctx, reg)
	if err != nil {
		respondError(c, "register", err)
		return
	}
	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		respondError(c, "issue session token", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

// Me returns the signed-in user.
func (h *Handler) Me(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	user, err := h.svc.GetUser(ctx, sessionUser(c))
	if err != nil {
		respondError(c, "fetch profile", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func openUpload(fh *multipart.FileHeader) (*storage.File, io.Closer, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &storage.File{
		Reader:      f,
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
	}, f, nil
}
