package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
// In tests you can replace it with a stub to avoid touching the terminal.
var readPassword = term.ReadPassword

// isTerminal reports whether stdin is interactive. Also a test seam.
var isTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

// prompter reads answers for one command. Prompts go to w so stdout stays
// clean for results; secrets are read without echo on a terminal and line
// by line from r otherwise.
type prompter struct {
	r *bufio.Reader
	w io.Writer
}

func newPrompter(r io.Reader, w io.Writer) *prompter {
	return &prompter{r: bufio.NewReader(r), w: w}
}

// Line prints prompt and reads one line, trimmed. A partial last line
// before EOF is returned as is.
func (p *prompter) Line(prompt string) (string, error) {
	if _, err := fmt.Fprint(p.w, prompt); err != nil {
		return "", err
	}
	line, err := p.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Secret prints prompt and reads a value without echo.
func (p *prompter) Secret(prompt string) (string, error) {
	if !isTerminal() {
		line, err := p.Line(prompt)
		return strings.TrimRight(line, "\r\n"), err
	}

	if _, err := fmt.Fprint(p.w, prompt); err != nil {
		return "", err
	}
	b, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(p.w)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
