package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/carrot/internal/session"
	"github.com/idilsaglam/carrot/internal/ui"
)

func newAuthCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Log in, sign up and inspect the session",
	}
	cmd.AddCommand(newAuthLoginCommand(rt))
	cmd.AddCommand(newAuthSignupCommand(rt))
	cmd.AddCommand(newAuthLogoutCommand(rt))
	cmd.AddCommand(newAuthStatusCommand(rt))
	cmd.AddCommand(newAuthWhoamiCommand(rt))
	return cmd
}

func newAuthLoginCommand(rt *runtime) *cobra.Command {
	var username, token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the access token",
		Long: `Log in with a username and password, or store an existing token.

The password is read from stdin, so it can be piped:
  echo "$PASSWORD" | carrot auth login -u alice`,
		Args: args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token != "" {
				if err := rt.app.Gate.Login(token); err != nil {
					return err
				}
				return rt.out.Done("token saved", statusOf(rt.app.Gate.Current()))
			}

			var err error
			if username == "" {
				if username, err = rt.prompt(cmd, "Username: "); err != nil {
					return usageError("no username given", "Pass --username or type it when asked")
				}
			}
			password, err := rt.prompt(cmd, "Password: ")
			if err != nil {
				return usageError("no password given", "Pipe the password on stdin")
			}
			issued, err := rt.app.Client.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			if err := rt.app.Gate.Login(issued); err != nil {
				return err
			}
			return rt.out.Done("logged in as "+username, statusOf(rt.app.Gate.Current()))
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().StringVar(&token, "token", "", "store this access token instead of logging in")
	return cmd
}

func newAuthSignupCommand(rt *runtime) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email == "" {
				if email, err = rt.prompt(cmd, "Email: "); err != nil {
					return usageError("no email given", "Pass --email")
				}
			}
			password, err := rt.prompt(cmd, "Password: ")
			if err != nil {
				return usageError("no password given", "Pipe the password on stdin")
			}
			if err := rt.app.Client.Signup(cmd.Context(), email, password); err != nil {
				return err
			}
			return rt.out.Print(map[string]string{"email": email}, func(w io.Writer) {
				ui.OK(w, "account created for "+email)
				ui.Hint(w, "Run: carrot auth login")
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	return cmd
}

func newAuthLogoutCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ti := rt.app.Gate.Current()
			if err := rt.app.Gate.Logout(); err != nil {
				return err
			}
			if ti != nil && ti.Source == session.SourceEnv {
				return rt.out.Done("token is provided by CARROT_TOKEN env var (nothing to delete)", statusView{})
			}
			return rt.out.Done("logged out", statusView{})
		},
	}
}

type statusView struct {
	LoggedIn  bool       `json:"logged_in" yaml:"logged_in"`
	Source    string     `json:"source,omitempty" yaml:"source,omitempty"`
	Subject   string     `json:"subject,omitempty" yaml:"subject,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

func statusOf(ti *session.TokenInfo) statusView {
	if ti == nil {
		return statusView{}
	}
	v := statusView{LoggedIn: true, Source: ti.Source, ExpiresAt: ti.ExpiresAt}
	if c, err := session.ReadClaims(ti.Token); err == nil {
		v.Subject = c.Subject
	}
	return v
}

func newAuthStatusCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the token comes from and when it expires",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := statusOf(rt.app.Gate.Current())
			return rt.out.Print(v, func(w io.Writer) {
				if !v.LoggedIn {
					fmt.Fprintln(w, "not logged in")
					ui.Hint(w, "Run: carrot auth login")
					return
				}
				expires := "never"
				if v.ExpiresAt != nil {
					expires = v.ExpiresAt.Local().Format(time.DateTime)
				}
				lines := []string{
					"source:  " + v.Source,
					"expires: " + expires,
				}
				if v.Subject != "" {
					lines = append(lines, "subject: "+v.Subject)
				}
				ui.Panel(w, lines)
			})
		},
	}
}

func newAuthWhoamiCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.requireAuth(); err != nil {
				return err
			}
			p, err := rt.app.Client.Me(cmd.Context())
			if err != nil {
				return err
			}
			return rt.out.Print(p, func(w io.Writer) {
				ui.Panel(w, []string{
					"name:    " + p.Name,
					"email:   " + p.Email,
					fmt.Sprintf("carrots: %d", p.CarrotBalance),
				})
			})
		},
	}
}
