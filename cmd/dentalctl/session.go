package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/dentaldesk/internal/portal/app"
	"github.com/aussiebroadwan/dentaldesk/internal/portal/domain"
	"github.com/aussiebroadwan/dentaldesk/internal/portal/service"
	"github.com/aussiebroadwan/dentaldesk/pkg/dentalsdk"
	"github.com/pquerna/otp/totp"
	"github.com/spf13/cobra"
)

// loginConfig holds configuration for the login command.
type loginConfig struct {
	email       string
	password    string
	role        string
	totpCode    string
	totpSecret  string
	newPassword string
}

func newLoginCmd() *cobra.Command {
	cfg := &loginConfig{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long: `Sign in as a patient, doctor or admin. Accounts created with a
temporary password must choose a new one before they get a session; the
new password is prompted for (or taken from --new-password) and the user
then logs in again with it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogin(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.email, "email", "", "account e-mail")
	cmd.Flags().StringVar(&cfg.password, "password", "", "account password (prompted when empty)")
	cmd.Flags().StringVar(&cfg.role, "role", string(domain.RolePatient), "account type: patient, doctor or admin")
	cmd.Flags().StringVar(&cfg.totpCode, "totp-code", "", "two-factor code")
	cmd.Flags().StringVar(&cfg.totpSecret, "totp-secret", "", "TOTP secret to derive the two-factor code from")
	cmd.Flags().StringVar(&cfg.newPassword, "new-password", "", "new password when a password change is required")

	return cmd
}

func runLogin(cmd *cobra.Command, cfg *loginConfig) error {
	role, err := dentalsdk.ParseRole(cfg.role)
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()

	email, err := valueOrPrompt(cmd, cfg.email, "E-mail: ")
	if err != nil {
		return err
	}
	password, err := valueOrPrompt(cmd, cfg.password, "Password: ")
	if err != nil {
		return err
	}

	creds := service.Credentials{Email: email, Password: password, Role: role, TwoFactorCode: cfg.totpCode}
	if creds.TwoFactorCode == "" && cfg.totpSecret != "" {
		if creds.TwoFactorCode, err = totp.GenerateCode(cfg.totpSecret, time.Now()); err != nil {
			return fmt.Errorf("failed to generate two-factor code: %w", err)
		}
	}

	result, err := a.Session.Login(ctx, creds)
	if errors.Is(err, service.ErrTwoFactorRequired) && creds.TwoFactorCode == "" {
		if creds.TwoFactorCode, err = prompt(cmd.InOrStdin(), cmd.ErrOrStderr(), "Two-factor code: "); err != nil {
			return err
		}
		result, err = a.Session.Login(ctx, creds)
	}
	if err != nil {
		if msg := a.Session.Snapshot().LastLoginError; msg != "" && !errors.Is(err, service.ErrTwoFactorRequired) {
			return errors.New(msg)
		}
		return userError(err)
	}

	if result.RequiresPasswordChange {
		fmt.Fprintln(cmd.OutOrStdout(), "A new password is required before you can continue.")
		newPassword, err := valueOrPrompt(cmd, cfg.newPassword, "New password: ")
		if err != nil {
			return err
		}
		ack, err := a.Auth.ChangeForcedPassword(ctx, service.ForcedPasswordChange{
			TempToken:   result.TempToken,
			NewPassword: newPassword,
			Role:        result.Role,
		})
		if err != nil {
			return userError(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), ack.Message)
		return nil
	}

	snap := a.Session.Snapshot()
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s). Home: %s\n", snap.User.Email, snap.User.Role, result.RedirectPath)
	return nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			a.Session.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

// whoamiConfig holds configuration for the whoami command.
type whoamiConfig struct {
	jsonOutput bool
}

type whoamiOutput struct {
	State       string              `json:"state"`
	ID          string              `json:"id,omitempty"`
	Email       string              `json:"email,omitempty"`
	Role        domain.Role         `json:"role,omitempty"`
	Permissions []domain.Permission `json:"permissions,omitempty"`
	ExpiresAt   *time.Time          `json:"expiresAt,omitempty"`
	Home        string              `json:"home"`
}

func newWhoamiCmd() *cobra.Command {
	cfg := &whoamiConfig{}

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return runWhoami(cmd, cfg, a)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output as JSON")

	return cmd
}

func runWhoami(cmd *cobra.Command, cfg *whoamiConfig, a *app.Application) error {
	snap := a.Session.Snapshot()
	out := whoamiOutput{State: snap.State.String(), Home: a.Session.RedirectPath()}
	if snap.IsAuthenticated() {
		exp := snap.User.ExpiresAt.UTC()
		out.ID = snap.User.ID
		out.Email = snap.User.Email
		out.Role = snap.User.Role
		out.Permissions = snap.User.Permissions
		out.ExpiresAt = &exp
	}

	if cfg.jsonOutput {
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	if !snap.IsAuthenticated() {
		fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s), session expires %s\n", out.Email, out.Role, out.ExpiresAt.Format(time.RFC1123))
	for _, p := range out.Permissions {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", p)
	}
	return nil
}

// changePasswordConfig holds configuration for the change-password command.
type changePasswordConfig struct {
	newPassword string
	role        string
}

func newChangePasswordCmd() *cobra.Command {
	cfg := &changePasswordConfig{}

	cmd := &cobra.Command{
		Use:   "change-password",
		Short: "Finish a required password change",
		Long: `Set the permanent password of an account that logged in with a
temporary one, using the temporary token stored by login.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			var role domain.Role
			if cfg.role != "" {
				if role, err = dentalsdk.ParseRole(cfg.role); err != nil {
					return err
				}
			}
			newPassword, err := valueOrPrompt(cmd, cfg.newPassword, "New password: ")
			if err != nil {
				return err
			}

			ack, err := a.Auth.ChangeForcedPassword(cmd.Context(), service.ForcedPasswordChange{
				NewPassword: newPassword,
				Role:        role,
			})
			if err != nil {
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), ack.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.newPassword, "new-password", "", "new password (prompted when empty)")
	cmd.Flags().StringVar(&cfg.role, "role", "", "account type the temporary password was issued for")

	return cmd
}
