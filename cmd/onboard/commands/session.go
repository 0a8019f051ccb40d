package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/utafrali/salesonboard/internal/auth"
	"github.com/utafrali/salesonboard/internal/domain"
	"github.com/utafrali/salesonboard/internal/onboarding"
	apperrors "github.com/utafrali/salesonboard/pkg/errors"
	"github.com/utafrali/salesonboard/pkg/validator"
)

func newLoginCmd(e *env) *cobra.Command {
	var creds auth.Credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and cache the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			fe := onboarding.FieldErrors{}
			if msg := validator.UsernameError(creds.Username); msg != "" {
				fe["username"] = msg
			}
			if msg := validator.PasswordError(creds.Password); msg != "" {
				fe["password"] = msg
			}
			if len(fe) > 0 {
				return fe
			}

			resp, err := e.app.Auth.Login(cmd.Context(), creds)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp.User)
		},
	}
	cmd.Flags().StringVarP(&creds.Username, "username", "u", "", "username or email")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "password")
	cmd.Flags().StringVar(&creds.Role, "role", "", "login role (default from ONBOARD_LOGIN_ROLE)")
	return cmd
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the cached session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e.app.Auth.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

type whoami struct {
	User      *domain.User `json:"user"`
	Subject   string       `json:"token_subject,omitempty"`
	Role      string       `json:"token_role,omitempty"`
	ExpiresAt *time.Time   `json:"token_expires_at,omitempty"`
	Expired   bool         `json:"token_expired"`
}

func newWhoamiCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			user := e.app.Auth.CurrentUser(cmd.Context())
			if user == nil {
				return apperrors.AuthRequired()
			}
			out := whoami{User: user}
			if info, err := e.app.Auth.TokenInfo(cmd.Context()); err == nil {
				out.Subject = info.Subject
				out.Role = info.Role
				out.Expired = info.Expired(time.Now())
				if !info.ExpiresAt.IsZero() {
					out.ExpiresAt = &info.ExpiresAt
				}
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newStatusCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the session store, backend and event broker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd.OutOrStdout(), e.app.Health.Check(cmd.Context()))
		},
	}
}
