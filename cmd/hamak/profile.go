package main

import (
	"github.com/hamas2/hamak/client"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (a *app) profileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile [USER]",
		Short: "Show a profile, your own by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, c := a.current()
			var userID string
			switch {
			case len(args) == 1:
				userID = args[0]
			case s != nil:
				userID = s.User.ID
			default:
				return errNotSignedIn
			}

			ctx, cancel := a.context(cmd)
			defer cancel()

			p, err := c.Profile(ctx, userID)
			if err != nil && !errors.Is(err, client.ErrNotFound) {
				return err
			}
			if p.User == nil {
				a.printf(cmd, "User not found\n")
			} else {
				a.printf(cmd, "%s\n", p.User.Name)
				if p.User.Bio != "" {
					a.printf(cmd, "%s\n", p.User.Bio)
				}
			}
			a.printf(cmd, "%d videos, %d likes\n", p.VideoCount, p.TotalLikes)
			for _, v := range p.Videos {
				a.printf(cmd, "  %s  %s  (%d likes)\n", v.ID, v.Description, v.Likes)
			}
			return nil
		},
	}
}
