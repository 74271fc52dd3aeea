// Package collector reads operator answers for clarifying questions through
// a line-based terminal prompt.
package collector

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/promptforge/promptforge/internal/pipeline"
)

var (
	counterStyle  = lipgloss.NewStyle().Faint(true)
	questionStyle = lipgloss.NewStyle().Bold(true)
	hintStyle     = lipgloss.NewStyle().Faint(true).Italic(true)
)

// Collector implements pipeline.AnswerSource over an input/output pair,
// normally stdin and stdout.
type Collector struct {
	in  *bufio.Reader
	out io.Writer
}

// New creates a Collector.
func New(in io.Reader, out io.Writer) *Collector {
	return &Collector{in: bufio.NewReader(in), out: out}
}

// Ask presents one question and blocks for a multi-line answer terminated by
// a blank line. An immediately blank answer is the explicit skip. End of
// input before any answer text surfaces as pipeline.ErrAborted; clarification
// is operator-paced, so there is no timeout.
func (c *Collector) Ask(ctx context.Context, question string, idx, total int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fmt.Fprintf(c.out, "\n%s %s\n", counterStyle.Render(fmt.Sprintf("[%d/%d]", idx, total)), questionStyle.Render(question))
	fmt.Fprintln(c.out, hintStyle.Render("finish with an empty line; an empty answer skips the question"))

	var lines []string
	for {
		fmt.Fprint(c.out, "> ")
		line, err := c.in.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if err != nil {
			if err != io.EOF {
				return "", fmt.Errorf("read answer: %w", err)
			}
			if strings.TrimSpace(line) != "" {
				lines = append(lines, line)
			}
			if len(lines) == 0 {
				return "", pipeline.ErrAborted
			}
			break
		}
		if strings.TrimSpace(line) == "" {
			break
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

// Collect asks every question in order and returns one pair per question.
// Skipped questions are recorded, never omitted.
func (c *Collector) Collect(ctx context.Context, questions []string) ([]pipeline.QA, error) {
	pairs := make([]pipeline.QA, 0, len(questions))
	for i, q := range questions {
		answer, err := c.Ask(ctx, q, i+1, len(questions))
		if err != nil {
			return nil, err
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			answer = pipeline.NoAnswer
		}
		pairs = append(pairs, pipeline.QA{Question: q, Answer: answer})
	}
	return pairs, nil
}
