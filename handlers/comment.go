package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type CommentRequest struct {
	Text string `json:"text" form:"text"`
}

func (h *Handler) GetComments(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	threads, err := h.svc.ListComments(ctx, c.Param("id"))
	if err != nil {
		respondError(c, "fetch comments", err)
		return
	}
	c.JSON(http.StatusOK, threads)
}

// AddComment returns the full comment list after the write.
func (h *Handler) AddComment(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	threads, err := h.svc.AddComment(ctx, c.Param("id"), sessionUser(c), req.Text)
	if err != nil {
		respondError(c, "add comment", err)
		return
	}
	c.JSON(http.StatusCreated, threads)
}

func (h *Handler) AddReply(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	threads, err := h.svc.AddReply(ctx, c.Param("id"), c.Param("cid"), sessionUser(c), req.Text)
	if err != nil {
		respondError(c, "add reply", err)
		return
	}
	c.JSON(http.StatusCreated, threads)
}
