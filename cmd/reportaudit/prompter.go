package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"reportaudit/internal/model"
)

// stdinPrompter asks the operator to pick a report type on the terminal.
// Prompts are serialized so concurrent workers never interleave questions.
type stdinPrompter struct {
	reader *bufio.Reader
	mu     sync.Mutex
}

func newStdinPrompter() *stdinPrompter {
	return &stdinPrompter{reader: bufio.NewReader(os.Stdin)}
}

// SelectType shows the options and reads a selection. An empty answer or
// EOF declines the choice.
func (p *stdinPrompter) SelectType(ctx context.Context, fileName string, options []model.TypeOption) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	fmt.Fprintf(os.Stderr, "\nCould not detect the report type of %s.\n", fileName)
	for i, option := range options {
		fmt.Fprintf(os.Stderr, "  %d) %-20s %s\n", i+1, option.ID, option.Name)
	}
	fmt.Fprintf(os.Stderr, "  0) skip (leave as unknown)\n")
	fmt.Fprint(os.Stderr, "Select: ")

	line, err := p.reader.ReadString('\n')
	if err != nil {
		return "", nil
	}

	choice, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || choice <= 0 || choice > len(options) {
		return "", nil
	}
	return options[choice-1].ID, nil
}
