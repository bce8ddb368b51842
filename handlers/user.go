package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetProfile returns the profile of :id. A missing user is a 404 that
// still carries the videos referencing the id.
func (h *Handler) GetProfile(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	profile, err := h.svc.LoadProfile(ctx, c.Param("id"))
	if err != nil {
		respondError(c, "fetch profile", err)
		return
	}
	if profile.User == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":      "User not found",
			"videos":     profile.Videos,
			"videoCount": profile.VideoCount,
			"totalLikes": profile.TotalLikes,
		})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetUserVideos lists the videos of :id whether or not the user exists.
func (h *Handler) GetUserVideos(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	videos, err := h.svc.UserVideos(ctx, c.Param("id"))
	if err != nil {
		respondError(c, "fetch videos", err)
		return
	}
	c.JSON(http.StatusOK, videos)
}
