package console

import (
	"fmt"
	"io"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// IsTerminal reports whether fd is an interactive terminal.
func IsTerminal(fd int) bool {
	return term.IsTerminal(fd)
}

// KeepTerminalState snapshots the terminal at fd. The returned func restores
// it, so echo comes back even if a hidden password read was interrupted.
func KeepTerminalState(fd int) (func(), error) {
	st, err := term.GetState(fd)
	if err != nil {
		return nil, err
	}
	return func() { _ = term.Restore(fd, st) }, nil
}

// TerminalPassword reads passwords from the terminal at fd without echo.
func TerminalPassword(out io.Writer, fd int) PasswordReader {
	return func(prompt string) (string, error) {
		if _, err := fmt.Fprint(out, prompt); err != nil {
			return "", err
		}
		pw, err := readPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}
}
