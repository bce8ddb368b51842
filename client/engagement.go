package client

import (
	"context"
	"strconv"

	"github.com/hamas2/hamak/models"
)

// Thread is a comment with its replies, oldest first.
type Thread struct {
	models.Comment
	Replies []models.Reply `json:"replies"`
}

type LikeState struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

type textBody struct {
	Text string `json:"text"`
}

func (c *Client) Comments(ctx context.Context, videoID string) ([]Thread, error) {
	var threads []Thread
	if err := c.getJSON(ctx, videoPath(videoID)+"/comments", &threads); err != nil {
		return nil, err
	}
	return threads, nil
}

// AddComment returns the video's comments after the write.
func (c *Client) AddComment(ctx context.Context, videoID, text string) ([]Thread, error) {
	var threads []Thread
	if err := c.postJSON(ctx, videoPath(videoID)+"/comments", textBody{text}, &threads); err != nil {
		return nil, err
	}
	return threads, nil
}

func (c *Client) AddReply(ctx context.Context, videoID, commentID, text string) ([]Thread, error) {
	var threads []Thread
	if err := c.postJSON(ctx, commentPath(videoID, commentID)+"/replies", textBody{text}, &threads); err != nil {
		return nil, err
	}
	return threads, nil
}

func (c *Client) LikeVideo(ctx context.Context, videoID string) (LikeState, error) {
	return c.like(ctx, videoPath(videoID)+"/like")
}

func (c *Client) LikeComment(ctx context.Context, videoID, commentID string) (LikeState, error) {
	return c.like(ctx, commentPath(videoID, commentID)+"/like")
}

func (c *Client) LikeReply(ctx context.Context, videoID, commentID, replyID string) (LikeState, error) {
	return c.like(ctx, commentPath(videoID, commentID)+"/replies/"+escape(replyID)+"/like")
}

func (c *Client) like(ctx context.Context, path string) (LikeState, error) {
	var state LikeState
	err := c.postJSON(ctx, path, nil, &state)
	return state, err
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
