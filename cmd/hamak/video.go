package main

import (
	"strings"

	"github.com/hamas2/hamak/client"
	"github.com/hamas2/hamak/service"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (a *app) uploadCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Publish a video clip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := requireText(description, service.ErrEmptyDescription)
			if err != nil {
				return err
			}
			_, c, err := a.signedIn()
			if err != nil {
				return err
			}
			f, err := openLimited(args[0], maxVideoBytes)
			if err != nil {
				return errors.Wrap(err, "video")
			}
			defer f.Close()

			ctx, cancel := a.context(cmd)
			defer cancel()

			a.printf(cmd, "Uploading %s...\n", args[0])
			video, err := c.Publish(ctx, desc, client.Upload{Name: f.Name(), Reader: f})
			if err != nil {
				return err
			}
			a.printf(cmd, "Published %s\n%s\n", video.ID, video.VideoURL)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "what the clip is about (required)")
	cmd.MarkFlagRequired("description")
	return cmd
}

func (a *app) shareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "share VIDEO",
		Short: "Print the public link to a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			url, err := a.anonymous().Share(ctx, args[0])
			if err != nil {
				return err
			}
			a.printf(cmd, "%s\n", url)
			return nil
		},
	}
}

func (a *app) likeCmd() *cobra.Command {
	var commentID, replyID string

	cmd := &cobra.Command{
		Use:   "like VIDEO",
		Short: "Like or unlike a video, comment or reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if replyID != "" && commentID == "" {
				return errors.New("--reply needs --comment")
			}
			_, c, err := a.signedIn()
			if err != nil {
				return err
			}

			ctx, cancel := a.context(cmd)
			defer cancel()

			var state client.LikeState
			switch {
			case replyID != "":
				state, err = c.LikeReply(ctx, args[0], commentID, replyID)
			case commentID != "":
				state, err = c.LikeComment(ctx, args[0], commentID)
			default:
				state, err = c.LikeVideo(ctx, args[0])
			}
			if err != nil {
				return err
			}
			a.printf(cmd, "%s, %d likes\n", likeMark(state.Liked), state.Likes)
			return nil
		},
	}
	cmd.Flags().StringVar(&commentID, "comment", "", "comment id")
	cmd.Flags().StringVar(&replyID, "reply", "", "reply id (with --comment)")
	return cmd
}

func (a *app) commentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comments VIDEO",
		Short: "List a video's comments and replies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			threads, err := a.anonymous().Comments(ctx, args[0])
			if err != nil {
				return err
			}
			a.printThreads(cmd, threads)
			return nil
		},
	}
}

func (a *app) commentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comment VIDEO TEXT...",
		Short: "Comment on a video",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := requireText(strings.Join(args[1:], " "), service.ErrEmptyText)
			if err != nil {
				return err
			}
			_, c, err := a.signedIn()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()

			threads, err := c.AddComment(ctx, args[0], text)
			if err != nil {
				return err
			}
			a.printThreads(cmd, threads)
			return nil
		},
	}
}

func (a *app) replyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reply VIDEO COMMENT TEXT...",
		Short: "Reply to a comment",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := requireText(strings.Join(args[2:], " "), service.ErrEmptyText)
			if err != nil {
				return err
			}
			_, c, err := a.signedIn()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()

			threads, err := c.AddReply(ctx, args[0], args[1], text)
			if err != nil {
				return err
			}
			a.printThreads(cmd, threads)
			return nil
		},
	}
}

func (a *app) printThreads(cmd *cobra.Command, threads []client.Thread) {
	if len(threads) == 0 {
		a.printf(cmd, "No comments yet\n")
		return
	}
	for _, t := range threads {
		a.printf(cmd, "%s  %s: %s  (%d likes)\n", t.ID, t.UserName, t.Text, t.Likes)
		for _, r := range t.Replies {
			a.printf(cmd, "    %s  %s: %s  (%d likes)\n", r.ID, r.UserName, r.Text, r.Likes)
		}
	}
}
