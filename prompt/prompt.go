// Package prompt collects a scrape request interactively on the terminal.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"html-scraper/models"

	"github.com/chzyer/readline"
)

// ErrAborted is returned when the user interrupts the prompt
var ErrAborted = errors.New("input aborted")

type lineReader interface {
	Readline() (string, error)
	ReadPassword(prompt string) ([]byte, error)
	SetPrompt(p string)
}

// Input is everything the interactive session asks for
type Input struct {
	Request  models.FetchRequest
	Criteria models.SelectionCriteria
	Output   string
}

// Prompter asks questions one line at a time
type Prompter struct {
	rl  lineReader
	out io.Writer
}

// New opens a readline session on the terminal. The returned func closes it.
func New() (*Prompter, func() error, error) {
	rl, err := readline.NewEx(&readline.Config{
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open terminal: %w", err)
	}
	return &Prompter{rl: rl, out: rl.Stdout()}, rl.Close, nil
}

// Collect runs the interactive questionnaire. defaultOutput is offered as the
// output file name.
func (p *Prompter) Collect(defaultOutput string) (*Input, error) {
	fmt.Fprintln(p.out, "Welcome to the web scraping tool")

	in := &Input{}

	for in.Request.URL == "" {
		url, err := p.ask("Enter the URL of the website to scrape", "")
		if err != nil {
			return nil, err
		}
		in.Request.URL = url
	}

	login, err := p.confirm("Does this page require a login (yes/no)?")
	if err != nil {
		return nil, err
	}
	if login {
		username, err := p.ask("Enter your username or email for login", "")
		if err != nil {
			return nil, err
		}
		password, err := p.Password("Enter your password")
		if err != nil {
			return nil, err
		}
		in.Request.AuthMode = models.AuthAuthenticated
		in.Request.Credentials = &models.Credentials{Username: username, Password: password}
	}

	strip, err := p.confirm("Do you want to remove invisible characters (yes/no)?")
	if err != nil {
		return nil, err
	}
	in.Criteria.StripNonASCII = strip

	if in.Criteria.Tag, err = p.ask("Enter the HTML tag to scrape (e.g., p, div, h1) or leave blank to scrape all elements", ""); err != nil {
		return nil, err
	}
	if in.Criteria.ClassName, err = p.ask("Enter the CSS class (optional, press enter to skip)", ""); err != nil {
		return nil, err
	}
	if in.Criteria.Attribute, err = p.ask("Enter the attribute to extract (optional, e.g., href, src, press enter to skip)", ""); err != nil {
		return nil, err
	}
	if in.Output, err = p.ask("Enter the name of the output file", defaultOutput); err != nil {
		return nil, err
	}

	return in, nil
}

// Password reads a masked password
func (p *Prompter) Password(question string) (string, error) {
	password, err := p.rl.ReadPassword(question + ": ")
	if err != nil {
		return "", mapErr(err)
	}
	return string(password), nil
}

// ask reads one trimmed line, returning def for an empty answer
func (p *Prompter) ask(question, def string) (string, error) {
	if def != "" {
		p.rl.SetPrompt(fmt.Sprintf("%s (%s): ", question, def))
	} else {
		p.rl.SetPrompt(question + ": ")
	}
	line, err := p.rl.Readline()
	if err != nil {
		return "", mapErr(err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	return line, nil
}

// confirm asks a yes/no question that defaults to no
func (p *Prompter) confirm(question string) (bool, error) {
	answer, err := p.ask(question, "no")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func mapErr(err error) error {
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return ErrAborted
	}
	return err
}
