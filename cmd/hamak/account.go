package main

import (
	"github.com/hamas2/hamak/client"
	"github.com/hamas2/hamak/service"
	"github.com/hamas2/hamak/session"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (a *app) registerCmd() *cobra.Command {
	var (
		reg      client.Registration
		lat, lng float64
		picture  string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a profile and sign in as it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := requireText(reg.Name, service.ErrEmptyName)
			if err != nil {
				return err
			}
			reg.Name = name
			if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng") {
				if err := validLocation(lat, lng); err != nil {
					return err
				}
				reg.Latitude, reg.Longitude = &lat, &lng
			}
			if picture != "" {
				f, err := openLimited(picture, maxImageBytes)
				if err != nil {
					return errors.Wrap(err, "profile picture")
				}
				defer f.Close()
				reg.Picture = &client.Upload{Name: f.Name(), Reader: f}
			}

			ctx, cancel := a.context(cmd)
			defer cancel()

			resp, err := a.anonymous().Register(ctx, reg)
			if err != nil {
				return err
			}
			if err := a.sessions.Save(&session.Session{User: resp.User, Token: resp.Token, Server: a.server}); err != nil {
				return err
			}
			a.printf(cmd, "Signed in as %s (%s)\n", resp.User.Name, resp.User.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&reg.Name, "name", "", "display name (required)")
	f.StringVar(&reg.Bio, "bio", "", "short bio")
	f.StringVar(&reg.Gender, "gender", "", "gender")
	f.Float64Var(&lat, "lat", 0, "latitude")
	f.Float64Var(&lng, "lng", 0, "longitude")
	f.StringVar(&picture, "picture", "", "profile picture file")
	cmd.MarkFlagRequired("name")
	return cmd
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.sessions.Load()
			if errors.Is(err, session.ErrNoSession) {
				return errNotSignedIn
			}
			if err != nil {
				return err
			}
			a.printf(cmd, "%s (%s)\n", s.User.Name, s.User.ID)
			if s.User.Bio != "" {
				a.printf(cmd, "%s\n", s.User.Bio)
			}
			return nil
		},
	}
}

func (a *app) signoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the signed-in user on this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sessions.Clear(); err != nil {
				return err
			}
			a.printf(cmd, "Signed out\n")
			return nil
		},
	}
}
