package main

import (
	"bufio"
	"strings"

	"github.com/hamas2/hamak/models"
	"github.com/hamas2/hamak/service"
	"github.com/spf13/cobra"
)

const feedHelp = `n/enter: next video   p: previous   l: like   c <text>: comment
s: share link          r: reload     q: quit`

func (a *app) feedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feed",
		Short: "Swipe through the feed, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, c := a.current()

			load := func() ([]models.Video, error) {
				ctx, cancel := a.context(cmd)
				defer cancel()
				return c.Feed(ctx)
			}

			videos, err := load()
			if err != nil {
				return err
			}
			cursor := service.NewCursor(len(videos))
			a.printf(cmd, "%s\n", feedHelp)
			a.showVideo(cmd, videos, cursor)

			in := bufio.NewScanner(cmd.InOrStdin())
			for in.Scan() {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				line := strings.TrimSpace(in.Text())
				verb, rest, _ := strings.Cut(line, " ")

				switch verb {
				case "q", "quit":
					return nil
				case "", "n", "next":
					cursor.Swipe(service.SwipeUp)
				case "p", "prev":
					cursor.Swipe(service.SwipeDown)
				case "r", "reload":
					if videos, err = load(); err != nil {
						a.printf(cmd, "error: %v\n", err)
						continue
					}
					cursor.Reset(len(videos))
				case "l", "like", "c", "comment", "s", "share":
					if len(videos) == 0 {
						a.printf(cmd, "the feed is empty\n")
						continue
					}
					if err := a.feedAction(cmd, verb, rest, &videos[cursor.Index()]); err != nil {
						a.printf(cmd, "error: %v\n", err)
					}
					continue
				default:
					a.printf(cmd, "%s\n", feedHelp)
					continue
				}
				a.showVideo(cmd, videos, cursor)
			}
			return in.Err()
		},
	}
}

func (a *app) feedAction(cmd *cobra.Command, verb, text string, v *models.Video) error {
	ctx, cancel := a.context(cmd)
	defer cancel()

	switch verb {
	case "s", "share":
		url, err := a.anonymous().Share(ctx, v.ID)
		if err != nil {
			return err
		}
		a.printf(cmd, "%s\n", url)
		return nil
	}

	if verb == "c" || verb == "comment" {
		var err error
		if text, err = requireText(text, service.ErrEmptyText); err != nil {
			return err
		}
	}

	_, c, err := a.signedIn()
	if err != nil {
		return err
	}
	switch verb {
	case "l", "like":
		state, err := c.LikeVideo(ctx, v.ID)
		if err != nil {
			return err
		}
		v.Likes = state.Likes
		a.printf(cmd, "%s  %d likes\n", likeMark(state.Liked), state.Likes)
	default:
		threads, err := c.AddComment(ctx, v.ID, text)
		if err != nil {
			return err
		}
		a.printf(cmd, "%d comments\n", len(threads))
	}
	return nil
}

func (a *app) showVideo(cmd *cobra.Command, videos []models.Video, cursor *service.Cursor) {
	if len(videos) == 0 {
		a.printf(cmd, "No videos yet\n")
		return
	}
	v := videos[cursor.Index()]
	a.printf(cmd, "[%d/%d] %s by %s\n", cursor.Index()+1, cursor.Len(), v.ID, v.UserName)
	a.printf(cmd, "  %s\n", v.Description)
	a.printf(cmd, "  %s\n", v.VideoURL)
	a.printf(cmd, "  %d likes, %d comments\n", v.Likes, len(v.Comments))
}

func likeMark(liked bool) string {
	if liked {
		return "liked"
	}
	return "unliked"
}
