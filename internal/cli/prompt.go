package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// linePrompter asks collision questions on a terminal. It implements
// groupstore.Prompter.
type linePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newLinePrompter(in io.Reader, out io.Writer) *linePrompter {
	return &linePrompter{in: bufio.NewReader(in), out: out}
}

func (p *linePrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// confirm asks a yes/no question; anything but y/yes is no. EOF is no.
func (p *linePrompter) confirm(question string) (bool, error) {
	fmt.Fprintf(p.out, "%s [y/N] ", question)
	answer, err := p.readLine()
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

func (p *linePrompter) ConfirmOverwrite(_ context.Context, name string) (bool, error) {
	return p.confirm(fmt.Sprintf("A group named %q already exists. Replace it?", name))
}

// PromptName reads a new name. An empty line or EOF cancels.
func (p *linePrompter) PromptName(_ context.Context, rejected string) (string, bool, error) {
	fmt.Fprintf(p.out, "New name instead of %q (empty to cancel): ", rejected)
	name, err := p.readLine()
	if err == io.EOF {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, name != "", nil
}
