// Command hamak is a terminal client for the hamak API.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hamas2/hamak/client"
	"github.com/hamas2/hamak/session"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const defaultServer = "http://localhost:8080"

var errNotSignedIn = errors.New("not signed in, run `hamak register` first")

type app struct {
	server      string
	sessionPath string
	timeout     time.Duration

	sessions *session.FileStore
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "hamak",
		Short:        "Browse, post and react to short videos",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.server, "server", "", "API base URL (default $HAMAK_SERVER or "+defaultServer+")")
	flags.StringVar(&a.sessionPath, "session", "", "session file (default in the user config dir)")
	flags.DurationVar(&a.timeout, "timeout", 2*time.Minute, "per-command timeout")

	root.AddCommand(
		a.registerCmd(),
		a.whoamiCmd(),
		a.signoutCmd(),
		a.feedCmd(),
		a.uploadCmd(),
		a.profileCmd(),
		a.commentsCmd(),
		a.commentCmd(),
		a.replyCmd(),
		a.likeCmd(),
		a.shareCmd(),
	)
	return root
}

func (a *app) setup() error {
	if a.sessionPath == "" {
		path, err := session.DefaultPath()
		if err != nil {
			return err
		}
		a.sessionPath = path
	}
	a.sessions = session.NewFileStore(a.sessionPath)

	if a.server == "" {
		a.server = os.Getenv("HAMAK_SERVER")
	}
	if a.server == "" {
		if s, err := a.sessions.Load(); err == nil && s.Server != "" {
			a.server = s.Server
		}
	}
	if a.server == "" {
		a.server = defaultServer
	}
	return nil
}

func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.timeout)
}

// anonymous is a client without a session.
func (a *app) anonymous() *client.Client {
	return client.New(a.server)
}

// signedIn returns the stored session and a client acting as its user.
func (a *app) signedIn() (*session.Session, *client.Client, error) {
	s, err := a.sessions.Load()
	if errors.Is(err, session.ErrNoSession) {
		return nil, nil, errNotSignedIn
	}
	if err != nil {
		return nil, nil, err
	}
	return s, client.New(a.server).WithToken(s.Token), nil
}

// current is like signedIn but falls back to an anonymous client.
func (a *app) current() (*session.Session, *client.Client) {
	s, c, err := a.signedIn()
	if err != nil {
		return nil, a.anonymous()
	}
	return s, c
}

func (a *app) printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
