package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	bridgeerr "github.com/mrz1836/litebridge/pkg/errors"
)

// Prompt hooks, replaced in tests.
//
//nolint:gochecknoglobals // Allows tests to stub interactive input
var (
	promptPasswordFn = promptPassword
	promptPhraseFn   = promptPhrase
)

// promptPassword prompts for a password with hidden input.
// The caller is responsible for zeroing the returned bytes after use.
func promptPassword(prompt string) ([]byte, error) {
	out(os.Stderr, "%s", prompt)

	password, err := term.ReadPassword(int(os.Stdin.Fd())) //nolint:gosec // G115: Fd() fits in int
	outln(os.Stderr)

	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	if len(password) == 0 {
		return nil, bridgeerr.WithSuggestion(bridgeerr.ErrInvalidInput, "password must not be empty")
	}

	return password, nil
}

// promptPhrase reads a seed phrase, hidden when stdin is a terminal.
func promptPhrase() (string, error) {
	fd := int(os.Stdin.Fd()) //nolint:gosec // G115: Fd() fits in int
	if term.IsTerminal(fd) {
		out(os.Stderr, "Enter seed phrase: ")
		phrase, err := term.ReadPassword(fd)
		outln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading seed phrase: %w", err)
		}
		return strings.TrimSpace(string(phrase)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading seed phrase: %w", err)
	}
	return strings.TrimSpace(line), nil
}
