// Package commands implements the onboard CLI.
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/utafrali/salesonboard/internal/app"
	"github.com/utafrali/salesonboard/internal/config"
	"github.com/utafrali/salesonboard/internal/onboarding"
	apperrors "github.com/utafrali/salesonboard/pkg/errors"
	"github.com/utafrali/salesonboard/pkg/logger"
)

// Builder creates the application for one command invocation.
type Builder func(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app.App, error)

type env struct {
	build      Builder
	loadConfig func() (*config.Config, error)

	networkLog bool
	logLevel   string

	app *app.App
}

// NewRootCmd creates the root command wired to the real environment.
func NewRootCmd() *cobra.Command {
	return newRootCmd(func(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app.App, error) {
		return app.New(ctx, cfg, log)
	}, config.Load)
}

func newRootCmd(build Builder, loadConfig func() (*config.Config, error)) *cobra.Command {
	e := &env{build: build, loadConfig: loadConfig}

	root := &cobra.Command{
		Use:           "onboard",
		Short:         "Onboard real-estate companies from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["offline"] == "true" {
				return nil
			}
			return e.open(cmd)
		},
	}
	root.PersistentFlags().BoolVar(&e.networkLog, "network-log", false, "print every API request to stderr after the command")
	root.PersistentFlags().StringVar(&e.logLevel, "log-level", "", "override ONBOARD_LOG_LEVEL")

	root.AddCommand(
		newLoginCmd(e),
		newLogoutCmd(e),
		newWhoamiCmd(e),
		newStatusCmd(e),
		newCompaniesCmd(e),
		newFilesCmd(e),
		newDocumentTypesCmd(),
		newDebugCmd(e),
		newVersionCmd(),
	)
	e.closeAfterRun(root)
	return root
}

// closeAfterRun releases the app after every runnable command, including
// failed runs, which PersistentPostRunE does not see.
func (e *env) closeAfterRun(c *cobra.Command) {
	if run := c.RunE; run != nil {
		c.RunE = func(cmd *cobra.Command, args []string) (err error) {
			defer func() {
				if cerr := e.close(cmd); err == nil {
					err = cerr
				}
			}()
			return run(cmd, args)
		}
	}
	for _, sub := range c.Commands() {
		e.closeAfterRun(sub)
	}
}

func (e *env) open(cmd *cobra.Command) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if e.logLevel != "" {
		level = e.logLevel
	}
	log := logger.NewWithWriter(app.ServiceName, level, cmd.ErrOrStderr())

	a, err := e.build(cmd.Context(), cfg, log)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	e.app = a
	return nil
}

func (e *env) close(cmd *cobra.Command) error {
	if e.app == nil {
		return nil
	}
	if e.networkLog {
		fmt.Fprintln(cmd.ErrOrStderr())
		_ = e.app.NetLog.Print(cmd.ErrOrStderr())
	}
	err := e.app.Close(cmd.Context())
	e.app = nil
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Exit codes.
const (
	ExitOK         = 0
	ExitError      = 1
	ExitValidation = 2
	ExitAuth       = 3
	ExitNetwork    = 4
)

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	var fe onboarding.FieldErrors
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, apperrors.ErrAuthRequired), errors.Is(err, apperrors.ErrUnauthorized):
		return ExitAuth
	case errors.Is(err, apperrors.ErrNetwork), errors.Is(err, apperrors.ErrTimeout):
		return ExitNetwork
	case errors.As(err, &fe), errors.Is(err, apperrors.ErrValidation):
		return ExitValidation
	default:
		return ExitError
	}
}

// Execute runs the root command and prints a failure the way the app's
// toasts did: the message only, plus field errors one per line.
func Execute(ctx context.Context, cmd *cobra.Command) int {
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		reportError(cmd.ErrOrStderr(), err)
	}
	return ExitCode(err)
}

// mappedError carries the form messages produced for a server failure
// while still unwrapping to that failure, so the exit code follows its class.
type mappedError struct {
	fields onboarding.FieldErrors
	cause  error
}

func (e *mappedError) Error() string { return e.fields.Error() }
func (e *mappedError) Unwrap() []error { return []error{e.fields, e.cause} }

// formError turns a failed create or update into form messages. A missing or
// rejected session is returned untouched so the user is told to log in.
func formError(err error, mapper func(error) onboarding.FieldErrors) error {
	if errors.Is(err, apperrors.ErrAuthRequired) || errors.Is(err, apperrors.ErrUnauthorized) {
		return err
	}
	fe := mapper(err)
	if fe == nil {
		return err
	}
	return &mappedError{fields: fe, cause: err}
}

func reportError(w io.Writer, err error) {
	var fe onboarding.FieldErrors
	if errors.As(err, &fe) {
		for _, line := range splitFieldErrors(fe) {
			fmt.Fprintln(w, line)
		}
		return
	}
	fmt.Fprintln(w, "error:", apperrors.MessageOf(err))
}

func splitFieldErrors(fe onboarding.FieldErrors) []string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == onboarding.FormKey {
			lines = append(lines, "error: "+fe[k])
			continue
		}
		lines = append(lines, fmt.Sprintf("  %s: %s", k, fe[k]))
	}
	return lines
}
