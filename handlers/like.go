package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hamas2/hamak/service"
)

func (h *Handler) LikeVideo(c *gin.Context) {
	h.toggleLike(c, service.VideoTarget(c.Param("id")))
}

func (h *Handler) LikeComment(c *gin.Context) {
	h.toggleLike(c, service.CommentTarget(c.Param("id"), c.Param("cid")))
}

func (h *Handler) LikeReply(c *gin.Context) {
	h.toggleLike(c, service.ReplyTarget(c.Param("id"), c.Param("cid"), c.Param("rid")))
}

func (h *Handler) toggleLike(c *gin.Context, target service.Target) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	state, err := h.svc.ToggleLike(ctx, target, sessionUser(c))
	if err != nil {
		respondError(c, "toggle like", err)
		return
	}
	c.JSON(http.StatusOK, state)
}
