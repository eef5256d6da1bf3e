// Package prompt implements the synchronous operator prompts used between
// capture steps.
//
// Every question resolves to an enumerated Decision instead of raw input
// strings. Unrecognized answers re-prompt; end of input counts as the
// conservative choice (abort or no) so a closed stdin can never loop forever
// or destroy data.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Decision enumerates the possible outcomes of an operator prompt.
type Decision int

const (
	Abort Decision = iota
	Retry
	Overwrite
	Yes
	No
)

func (d Decision) String() string {
	switch d {
	case Abort:
		return "abort"
	case Retry:
		return "retry"
	case Overwrite:
		return "overwrite"
	case Yes:
		return "yes"
	case No:
		return "no"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Prompter asks blocking questions on out and reads answers from in.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// New builds a Prompter over the given streams.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// NewTerminal builds a Prompter bound to the controlling terminal streams.
// Prompts write to stdout so they interleave with the report, not the logs.
func NewTerminal() *Prompter {
	return New(os.Stdin, os.Stdout)
}

// RetryOrAbort asks whether to check the drive again or give up.
func (p *Prompter) RetryOrAbort(question string) (Decision, error) {
	return p.ask(question, "[r]etry/[a]bort:", map[string]Decision{
		"r":     Retry,
		"retry": Retry,
		"a":     Abort,
		"abort": Abort,
	}, Abort)
}

// OverwriteOrAbort asks whether an existing file may be replaced.
func (p *Prompter) OverwriteOrAbort(question string) (Decision, error) {
	return p.ask(question, "[o]verwrite/[a]bort:", map[string]Decision{
		"o":         Overwrite,
		"overwrite": Overwrite,
		"a":         Abort,
		"abort":     Abort,
	}, Abort)
}

// YesOrNo asks a yes/no question, used for the add-another-disc loop.
func (p *Prompter) YesOrNo(question string) (Decision, error) {
	return p.ask(question, "[y]es/[n]o:", map[string]Decision{
		"y":   Yes,
		"yes": Yes,
		"n":   No,
		"no":  No,
	}, No)
}

// ask loops until the answer matches one of the recognized options. The
// fallback decision applies when input is exhausted.
func (p *Prompter) ask(question, hint string, options map[string]Decision, fallback Decision) (Decision, error) {
	for {
		if _, err := fmt.Fprintf(p.out, "%s %s ", question, hint); err != nil {
			return fallback, fmt.Errorf("write prompt: %w", err)
		}
		line, err := p.in.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		if decision, ok := options[answer]; ok {
			return decision, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(p.out)
				return fallback, nil
			}
			return fallback, fmt.Errorf("read prompt response: %w", err)
		}
	}
}
