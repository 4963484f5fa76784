package cmd

import (
	"errors"
	"fmt"
	"os"

	gferrors "github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"
)

// ExitError carries the foundry exit code a failed command should terminate with.
type ExitError struct {
	Code foundry.ExitCode
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	if info, ok := foundry.GetExitCodeInfo(e.Code); ok {
		return info.Description
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

func withExitCode(code foundry.ExitCode, err error) error {
	return &ExitError{Code: code, Err: err}
}

// ExitCodeFor maps a command error to its exit code.
func ExitCodeFor(err error) foundry.ExitCode {
	if err == nil {
		return foundry.ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return foundry.ExitFailure
}

// ExitWithCode exits the program with a semantic foundry exit code and logs the error.
//
// Parameters:
//   - logger: The logger to use for error output (can be nil for early failures)
//   - exitCode: The foundry exit code constant (e.g., foundry.ExitConfigInvalid)
//   - msg: Human-readable error message
//   - err: The underlying error (can be nil)
func ExitWithCode(logger *logging.Logger, exitCode foundry.ExitCode, msg string, err error) {
	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v (exit code: %d)\n", msg, err, exitCode)
		os.Exit(int(exitCode))
	}

	if logger == nil {
		ExitWithCodeStderr(exitCode, msg, err)
		return
	}

	logger.Error(msg, exitFields(info, err)...)
	_ = logger.Sync()

	os.Exit(info.Code)
}

// exitFields builds the structured fields logged before exiting.
func exitFields(info foundry.ExitCodeInfo, err error) []zap.Field {
	fields := []zap.Field{
		zap.Int("exit_code", info.Code),
		zap.String("exit_name", info.Name),
		zap.String("exit_description", info.Description),
		zap.String("exit_category", info.Category),
	}

	var envelope *gferrors.ErrorEnvelope
	if errors.As(err, &envelope) {
		fields = append(fields,
			zap.String("error_code", envelope.Code),
			zap.String("error_message", envelope.Message),
			zap.String("correlation_id", envelope.CorrelationID),
			zap.String("trace_id", envelope.TraceID),
		)
		if envelope.Context != nil {
			fields = append(fields, zap.Any("error_context", envelope.Context))
		}
	}

	return append(fields, zap.Error(err))
}

// ExitWithCodeStderr is a variant that writes to stderr without a logger.
// Use this for early failures before logger initialization.
func ExitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %s: %v (exit code: %d)\n", msg, err, exitCode)
		} else {
			fmt.Fprintf(os.Stderr, "FATAL: %s (exit code: %d)\n", msg, exitCode)
		}
		os.Exit(int(exitCode))
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "FATAL: %s\n", msg)
	}
	fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)

	os.Exit(info.Code)
}
