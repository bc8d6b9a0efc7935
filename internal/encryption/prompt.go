package encryption

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// PassphraseEnv names the environment variable that supplies the passphrase
// non-interactively.
const PassphraseEnv = "DRAWER_PASSPHRASE"

// PassphraseFunc returns a passphrase, displaying prompt if it asks a user.
type PassphraseFunc func(prompt string) (string, error)

// TerminalPrompt reads a passphrase from the terminal on in without echo,
// writing the prompt to out. If DRAWER_PASSPHRASE is set it is returned
// instead.
func TerminalPrompt(in *os.File, out io.Writer) PassphraseFunc {
	return func(prompt string) (string, error) {
		if p := os.Getenv(PassphraseEnv); p != "" {
			return p, nil
		}

		fd := int(in.Fd())
		if !term.IsTerminal(fd) {
			return "", fmt.Errorf("stdin is not a terminal; set %s", PassphraseEnv)
		}

		fmt.Fprint(out, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		if len(b) == 0 {
			return "", fmt.Errorf("passphrase must not be empty")
		}
		return string(b), nil
	}
}

// StaticPassphrase always returns p.
func StaticPassphrase(p string) PassphraseFunc {
	return func(string) (string, error) { return p, nil }
}

// Once wraps f so the user is asked at most once per process.
func Once(f PassphraseFunc) PassphraseFunc {
	var (
		mu   sync.Mutex
		done bool
		pass string
	)
	return func(prompt string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if done {
			return pass, nil
		}
		p, err := f(prompt)
		if err != nil {
			return "", err
		}
		pass, done = p, true
		return pass, nil
	}
}
