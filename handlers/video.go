package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hamas2/hamak/service"
)

// multipartMemory is how much of a multipart body is kept in memory; the
// rest spills to temp files.
const multipartMemory = 32 << 20

// GetFeed returns all videos, most recent first.
func (h *Handler) GetFeed(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	videos, err := h.svc.Feed(ctx)
	if err != nil {
		respondError(c, "fetch feed", err)
		return
	}
	c.JSON(http.StatusOK, videos)
}

func (h *Handler) GetVideo(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	video, err := h.svc.GetVideo(ctx, c.Param("id"))
	if err != nil {
		respondError(c, "fetch video", err)
		return
	}
	c.JSON(http.StatusOK, video)
}

// UploadVideo takes a multipart form with "file" and "description".
func (h *Handler) UploadVideo(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.limits.MaxVideoBytes+1<<20)
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		respondError(c, "parse form data", badRequest(err))
		return
	}

	pub := service.Publication{Description: c.PostForm("description")}
	fh, err := c.FormFile("file")
	switch {
	case err == http.ErrMissingFile:
	case err != nil:
		respondError(c, "read upload", badRequest(err))
		return
	default:
		f, closer, err := openUpload(fh)
		if err != nil {
			respondError(c, "read upload", err)
			return
		}
		defer closer.Close()
		pub.File = f
	}

	ctx, cancel := h.uploadCtx(c)
	defer cancel()

	video, err := h.svc.Publish(ctx, sessionUser(c), pub)
	if err != nil {
		respondError(c, "publish video", err)
		return
	}
	c.JSON(http.StatusCreated, video)
}

func (h *Handler) ShareVideo(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	url, err := h.svc.ShareURL(ctx, c.Param("id"))
	if err != nil {
		respondError(c, "build share link", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
