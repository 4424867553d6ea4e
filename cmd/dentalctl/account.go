package main

import (
	"fmt"

	"github.com/aussiebroadwan/dentaldesk/internal/portal/service"
	"github.com/aussiebroadwan/dentaldesk/pkg/dentalsdk"
	"github.com/spf13/cobra"
)

// accountFlow runs fn against a freshly opened client and prints its
// acknowledgment.
func accountFlow(cmd *cobra.Command, fn func(*service.AuthService) (*service.Acknowledgment, error)) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ack, err := fn(a.Auth)
	if err != nil {
		return userError(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), ack.Message)
	return nil
}

func newRegisterCmd() *cobra.Command {
	req := dentalsdk.RegisterRequest{}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a patient account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if req.Password, err = valueOrPrompt(cmd, req.Password, "Password: "); err != nil {
				return err
			}
			return accountFlow(cmd, func(s *service.AuthService) (*service.Acknowledgment, error) {
				return s.Register(cmd.Context(), req)
			})
		},
	}

	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&req.Email, "email", "", "e-mail address")
	cmd.Flags().StringVar(&req.Password, "password", "", "password (prompted when empty)")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&req.DateOfBirth, "date-of-birth", "", "date of birth, YYYY-MM-DD")

	return cmd
}

func newForgotPasswordCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset link",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return accountFlow(cmd, func(s *service.AuthService) (*service.Acknowledgment, error) {
				return s.ForgotPassword(cmd.Context(), email)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account e-mail")

	return cmd
}

func newResendVerificationCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "resend-verification",
		Short: "Send a new e-mail verification link",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return accountFlow(cmd, func(s *service.AuthService) (*service.Acknowledgment, error) {
				return s.ResendVerificationEmail(cmd.Context(), email)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account e-mail")

	return cmd
}

func newResetPasswordCmd() *cobra.Command {
	var newPassword string

	cmd := &cobra.Command{
		Use:   "reset-password <token>",
		Short: "Set a new password from a reset link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := valueOrPrompt(cmd, newPassword, "New password: ")
			if err != nil {
				return err
			}
			return accountFlow(cmd, func(s *service.AuthService) (*service.Acknowledgment, error) {
				return s.ResetPassword(cmd.Context(), dentalsdk.ResetPasswordRequest{Token: args[0], NewPassword: pw})
			})
		},
	}

	cmd.Flags().StringVar(&newPassword, "new-password", "", "new password (prompted when empty)")

	return cmd
}

func newVerifyEmailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-email <token>",
		Short: "Confirm an e-mail address from a verification link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := accountFlow(cmd, func(s *service.AuthService) (*service.Acknowledgment, error) {
				return s.VerifyEmail(cmd.Context(), args[0])
			})
			if err != nil && isExpiredLink(err) {
				cmd.PrintErrln("Run 'dentalctl resend-verification --email <address>' for a new link.")
			}
			return err
		},
	}
}
