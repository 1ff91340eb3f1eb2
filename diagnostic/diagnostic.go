// Package diagnostic renders compiler errors as the offending source
// line, a caret under the offending column, and a message, followed by
// a nonzero process exit.
package diagnostic

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
)

// PositionedError is a user-facing compiler error (lex or parse failure)
// anchored to a byte offset in the original source.
type PositionedError struct {
	Offset  int
	Message string
}

// NewError builds a PositionedError with a formatted message.
func NewError(offset int, format string, args ...interface{}) *PositionedError {
	return &PositionedError{Offset: offset, Message: fmt.Sprintf(format, args...)}
}

func (e *PositionedError) Error() string {
	return e.Message
}

// InternalError marks a violated compiler invariant (not a user-program
// error) such as the emitter observing a non-lvalue assignment target or
// an unhandled node type. These should never occur for programs that made
// it through the parser; if they do, the bug is in kanic itself.
type InternalError struct {
	cause error
}

// NewInternal builds an InternalError whose cause is created with
// pkg/errors, so it carries a stack trace and the distinguishing report
// below can show where the invariant broke.
func NewInternal(format string, args ...interface{}) *InternalError {
	return &InternalError{cause: errors.Errorf(format, args...)}
}

func (e *InternalError) Error() string {
	return e.cause.Error()
}

func (e *InternalError) Unwrap() error {
	return e.cause
}

// Report prints err against source and terminates the process with a
// nonzero status. It never returns.
func Report(source string, err error) {
	var perr *PositionedError
	if errors.As(err, &perr) {
		reportPositioned(source, perr.Offset, perr.Message)
		os.Exit(1)
	}

	var ierr *InternalError
	if errors.As(err, &ierr) {
		reportInternal(ierr)
		os.Exit(1)
	}

	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

// Format renders "<line>\n<spaces>^ <message>\n" without any color
// codes. It is exported so tests can assert the exact byte contract
// without needing to fork a process.
func Format(source string, offset int, message string) string {
	line, column := locate(source, offset)
	return line + "\n" + strings.Repeat(" ", column) + "^ " + message + "\n"
}

// reportPositioned writes Format's output to stderr, bolding the caret
// line when stderr is a terminal. Color is disabled explicitly when
// stderr is not a character device, so the byte-for-byte output contract
// holds for redirected/piped output.
func reportPositioned(source string, offset int, message string) {
	line, column := locate(source, offset)
	caret := strings.Repeat(" ", column) + "^ " + message

	bold := color.New(color.Bold)
	if info, err := os.Stderr.Stat(); err != nil || info.Mode()&os.ModeCharDevice == 0 {
		bold.DisableColor()
	}

	fmt.Fprintln(os.Stderr, line)
	bold.Fprintln(os.Stderr, caret)
}

// reportInternal prints a clearly distinguishable message for a violated
// compiler invariant, as opposed to a user-program error.
func reportInternal(err *InternalError) {
	color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "internal compiler error: %+v\n", err.cause)
}

// locate finds the line containing offset and the column (byte offset
// within that line) of offset, scanning line by line and tracking the
// cumulative byte count including each line's terminating "\n".
func locate(source string, offset int) (line string, column int) {
	cumulative := 0
	lines := strings.Split(source, "\n")

	for i, ln := range lines {
		lineBytes := len(ln) + 1 // +1 accounts for the "\n" terminator
		if offset < cumulative+lineBytes || i == len(lines)-1 {
			return ln, offset - cumulative
		}
		cumulative += lineBytes
	}

	return "", 0
}
