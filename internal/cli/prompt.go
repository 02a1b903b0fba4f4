package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/okian/lineup/internal/domain/search"
)

var (
	warnColor   = color.New(color.FgYellow)
	dangerColor = color.New(color.FgRed, color.Bold)
	promptColor = color.New(color.FgCyan)
)

// prompter reads answers from one buffered input so that several
// questions can share a stream.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// ask prints question and returns the trimmed answer.
// End of input counts as a blank answer.
func (p *prompter) ask(question string) (string, error) {
	_, _ = promptColor.Fprint(p.out, question)
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// confirm warns about a large plan and asks whether to continue.
// Only "yes" and "y" proceed.
func (p *prompter) confirm(plan search.Plan) bool {
	if plan.Overflow {
		_, _ = dangerColor.Fprintln(p.out, "Warning: the number of permutations exceeds 2^64.")
	} else {
		_, _ = warnColor.Fprintf(p.out, "Warning: the number of permutations is %d.\n", plan.Permutations)
	}
	_, _ = warnColor.Fprintln(p.out, "This may take a very long time to compute.")
	answer, err := p.ask("Do you want to continue? (yes/no): ")
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "yes", "y":
		return true
	default:
		return false
	}
}
