// Package interactive provides interactive prompts for user confirmation.
package interactive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Response represents the user's response to a prompt.
type Response int

const (
	ResponseYes  Response = iota // Proceed with this item
	ResponseNo                   // Skip this item
	ResponseAll                  // Approve all remaining items
	ResponseQuit                 // Abort without touching anything else
)

// Prompter handles interactive prompts for destructive actions.
type Prompter struct {
	in         io.Reader
	out        io.Writer
	scanner    *bufio.Scanner
	approveAll bool
}

// NewPrompter creates a prompter with stdin/stderr. Prompts go to stderr so
// stdout stays clean for structured output.
func NewPrompter() *Prompter {
	return NewPrompterWithIO(os.Stdin, os.Stderr)
}

// NewPrompterWithIO creates a prompter with custom input/output (for testing).
func NewPrompterWithIO(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:      in,
		out:     out,
		scanner: bufio.NewScanner(in),
	}
}

// IsTerminal checks if stdin is a terminal (TTY).
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// prompt displays a question and reads the response.
func (p *Prompter) prompt(format string, args ...interface{}) Response {
	if p.approveAll {
		return ResponseYes
	}

	_, _ = fmt.Fprintf(p.out, format, args...)
	_, _ = fmt.Fprint(p.out, " [y/n/a/q] ")

	if !p.scanner.Scan() {
		return ResponseQuit
	}

	input := strings.ToLower(strings.TrimSpace(p.scanner.Text()))
	switch input {
	case "y", "yes":
		return ResponseYes
	case "n", "no":
		return ResponseNo
	case "a", "all":
		p.approveAll = true
		return ResponseYes
	case "q", "quit":
		return ResponseQuit
	default:
		// Default to no for invalid input
		_, _ = fmt.Fprintln(p.out, "Invalid response, skipping.")
		return ResponseNo
	}
}

// Confirm asks a single yes/no question. Anything but y/yes is a no,
// including EOF.
func (p *Prompter) Confirm(question string) bool {
	_, _ = fmt.Fprintf(p.out, "%s [y/n] ", question)
	if !p.scanner.Scan() {
		return false
	}
	input := strings.ToLower(strings.TrimSpace(p.scanner.Text()))
	return input == "y" || input == "yes"
}

// SelectItems asks about each item in turn using verb (e.g. "Delete") and
// returns the approved items in order. A quit answer returns nil and false.
func (p *Prompter) SelectItems(verb string, items []string) ([]string, bool) {
	approved := make([]string, 0, len(items))
	for _, item := range items {
		switch p.prompt("%s task %s?", verb, item) {
		case ResponseYes, ResponseAll:
			approved = append(approved, item)
		case ResponseNo:
			continue
		case ResponseQuit:
			_, _ = fmt.Fprintln(p.out, "Aborted.")
			return nil, false
		}
	}
	return approved, true
}
