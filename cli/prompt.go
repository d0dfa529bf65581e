package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
)

// errQuit ends the shell loop without an error.
var errQuit = errors.New("quit")

// prompter asks the user for the shell's choices and inputs.
type prompter interface {
	// Choose returns the selected menu action.
	Choose(items []menuItem) (action, error)
	// Input returns one line of text. Leading and trailing spaces are removed.
	Input(title string) (string, error)
}

// formPrompter uses interactive huh forms. It is used when stdin is a terminal.
type formPrompter struct{}

func (formPrompter) Choose(items []menuItem) (action, error) {
	options := make([]huh.Option[action], len(items))
	for i, item := range items {
		options[i] = huh.NewOption(item.title, item.action)
	}

	var selected action
	err := huh.NewSelect[action]().
		Title("Personal Expense Tracker").
		Options(options...).
		Value(&selected).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return actionExit, nil
	}
	return selected, err
}

func (formPrompter) Input(title string) (string, error) {
	var value string
	err := huh.NewInput().
		Title(title).
		Value(&value).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return "", errQuit
	}
	return strings.TrimSpace(value), err
}

// linePrompter reads menu codes and inputs line by line, so the shell can be
// driven from a pipe or a script.
type linePrompter struct {
	scanner *bufio.Scanner
	w       io.Writer
}

func newLinePrompter(r io.Reader, w io.Writer) *linePrompter {
	return &linePrompter{scanner: bufio.NewScanner(r), w: w}
}

func (p *linePrompter) Choose(items []menuItem) (action, error) {
	_, _ = fmt.Fprintln(p.w)
	_, _ = fmt.Fprintln(p.w, headerStyle.Render("Personal Expense Tracker"))
	for _, item := range items {
		_, _ = fmt.Fprintf(p.w, "%d. %s\n", item.action, item.title)
	}

	for {
		line, err := p.readLine("Enter your choice: ")
		if err != nil {
			return 0, err
		}

		code, err := strconv.Atoi(line)
		if err == nil {
			for _, item := range items {
				if int(item.action) == code {
					return item.action, nil
				}
			}
		}
		printError(p.w, fmt.Sprintf("Invalid choice %q.", line))
	}
}

func (p *linePrompter) Input(title string) (string, error) {
	return p.readLine(title + ": ")
}

func (p *linePrompter) readLine(prompt string) (string, error) {
	_, _ = fmt.Fprint(p.w, prompt)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}
