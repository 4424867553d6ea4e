package main

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/aussiebroadwan/dentaldesk/internal/portal/app"
	"github.com/aussiebroadwan/dentaldesk/internal/portal/service"
	"github.com/aussiebroadwan/dentaldesk/internal/xdg"
	"github.com/aussiebroadwan/dentaldesk/pkg/dentalsdk"
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the dentalctl CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dentalctl",
		Short: "DentalDesk client",
		Long: `dentalctl signs in to a DentalDesk practice API, runs the account
flows and serves a local portal over the same session.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&configFile, "config", xdg.ConfigFile(), "config file path")
	flags.String("api-url", "", "base URL of the dental API")
	flags.String("storage-driver", "", "session storage: memory, file or sqlite")
	flags.String("storage-path", "", "session storage path (default: XDG state dir)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (json or text)")

	cmd.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newRegisterCmd(),
		newForgotPasswordCmd(),
		newResetPasswordCmd(),
		newVerifyEmailCmd(),
		newResendVerificationCmd(),
		newChangePasswordCmd(),
		newOpenCmd(),
		newServeCmd(),
	)

	return cmd
}

// openApp loads configuration for cmd and starts a client with the session
// restored from storage.
func openApp(cmd *cobra.Command) (*app.Application, error) {
	cfg, err := app.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	cfg.LogOutput = cmd.ErrOrStderr()

	return app.New(cmd.Context(), cfg)
}

// userError turns a flow or API failure into the message the user should
// see, with field errors listed underneath.
func userError(err error) error {
	if err == nil {
		return nil
	}

	var (
		msg    string
		fields map[string]string
	)
	var flow *service.FlowError
	if errors.As(err, &flow) {
		msg, fields = flow.UserMessage(), flow.Fields
	} else if apiErr, ok := dentalsdk.AsAPIError(err); ok {
		msg, fields = apiErr.UserMessage(), apiErr.FieldErrors
	} else {
		return err
	}

	var b strings.Builder
	b.WriteString(msg)
	for _, field := range slices.Sorted(maps.Keys(fields)) {
		fmt.Fprintf(&b, "\n  %s: %s", field, fields[field])
	}
	return &displayError{msg: b.String(), err: err}
}

// displayError shows msg while keeping err reachable for errors.Is.
type displayError struct {
	msg string
	err error
}

func (e *displayError) Error() string { return e.msg }
func (e *displayError) Unwrap() error { return e.err }

// prompt reads one line from in after writing label to out. It reads a byte
// at a time so consecutive prompts can share in.
func prompt(in io.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)

	var (
		line []byte
		buf  [1]byte
	)
	for {
		n, err := in.Read(buf[:])
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			line = append(line, buf[0])
		}
		if errors.Is(err, io.EOF) && len(line) > 0 {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
		}
	}
	return strings.TrimRight(string(line), "\r"), nil
}

// valueOrPrompt returns v, prompting for it when empty.
func valueOrPrompt(cmd *cobra.Command, v, label string) (string, error) {
	if v != "" {
		return v, nil
	}
	return prompt(cmd.InOrStdin(), cmd.ErrOrStderr(), label)
}

// isExpiredLink reports whether err is an expired e-mailed link.
func isExpiredLink(err error) bool {
	return errors.Is(err, service.ErrTokenExpired)
}
