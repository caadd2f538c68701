// Package prompt abstracts interactive input so the workflow can be driven
// either from the console or by a test harness supplying scripted values.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Prompter supplies the manually entered figures the workflow needs.
type Prompter interface {
	String(label string) (string, error)
	Float(label string) (float64, error)
}

// Console prompts on an output writer and reads answers line by line.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsole creates a Console over stdin/stdout.
func NewConsole() *Console {
	return NewConsoleWith(os.Stdin, os.Stdout)
}

// NewConsoleWith creates a Console over the given reader and writer.
func NewConsoleWith(r io.Reader, w io.Writer) *Console {
	return &Console{in: bufio.NewReader(r), out: w}
}

// String prints the label and returns the next line, trimmed.
func (c *Console) String(label string) (string, error) {
	fmt.Fprintf(c.out, "%s: ", label)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input for %q: %w", label, err)
	}
	return strings.TrimSpace(line), nil
}

// Float prompts until the answer parses as a number. Comma and dot decimal
// separators are both accepted.
func (c *Console) Float(label string) (float64, error) {
	for {
		raw, err := c.String(label)
		if err != nil {
			return 0, err
		}
		v, err := parseFloat(raw)
		if err == nil {
			return v, nil
		}
		fmt.Fprintln(c.out, "Ugyldigt tal, prøv igen.")
	}
}

// Script answers prompts from a fixed list, for tests.
type Script struct {
	answers []string
	next    int
}

// NewScript creates a Script that returns the given answers in order.
func NewScript(answers ...string) *Script {
	return &Script{answers: answers}
}

func (s *Script) String(label string) (string, error) {
	if s.next >= len(s.answers) {
		return "", fmt.Errorf("no scripted answer for %q: %w", label, io.EOF)
	}
	answer := s.answers[s.next]
	s.next++
	return answer, nil
}

func (s *Script) Float(label string) (float64, error) {
	raw, err := s.String(label)
	if err != nil {
		return 0, err
	}
	return parseFloat(raw)
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}
