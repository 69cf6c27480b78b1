package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var errQuit = errors.New("quit")

// prompter reads answers line by line. An empty line keeps the default and
// "q" or "quit" returns errQuit.
type prompter struct {
	sc       *bufio.Scanner
	w        io.Writer
	defaults bool
}

func newPrompter(r io.Reader, w io.Writer, defaults bool) *prompter {
	return &prompter{sc: bufio.NewScanner(r), w: w, defaults: defaults}
}

func (p *prompter) line(question string) (string, bool, error) {
	fmt.Fprint(p.w, question)
	if p.defaults {
		fmt.Fprintln(p.w)
		return "", false, nil
	}
	if !p.sc.Scan() {
		if err := p.sc.Err(); err != nil {
			return "", false, errors.Wrap(err, "read answer")
		}
		return "", false, errors.Errorf("input ended at %q", strings.TrimSpace(question))
	}
	text := strings.TrimSpace(p.sc.Text())
	if text == "q" || text == "quit" {
		return "", false, errQuit
	}
	return text, text != "", nil
}

// Int asks until the answer parses and isValid returns an empty message.
func (p *prompter) Int(question string, def int, isValid func(int) string) (int, error) {
	for {
		text, answered, err := p.line(question)
		if err != nil {
			return 0, err
		}
		v := def
		if answered {
			if v, err = strconv.Atoi(text); err != nil {
				fmt.Fprintln(p.w, "Please enter an integer.")
				continue
			}
		}
		if isValid != nil {
			if errMsg := isValid(v); errMsg != "" {
				fmt.Fprintln(p.w, errMsg)
				if !answered {
					return 0, errors.Errorf("default %d is invalid: %s", def, errMsg)
				}
				continue
			}
		}
		return v, nil
	}
}

func (p *prompter) Float(question string, def float64, isValid func(float64) string) (float64, error) {
	for {
		text, answered, err := p.line(question)
		if err != nil {
			return 0, err
		}
		v := def
		if answered {
			if v, err = strconv.ParseFloat(text, 64); err != nil {
				fmt.Fprintln(p.w, "Please enter a floating point number.")
				continue
			}
		}
		if isValid != nil {
			if errMsg := isValid(v); errMsg != "" {
				fmt.Fprintln(p.w, errMsg)
				if !answered {
					return 0, errors.Errorf("default %g is invalid: %s", def, errMsg)
				}
				continue
			}
		}
		return v, nil
	}
}

// Flag takes 0 or 1.
func (p *prompter) Flag(question string, def bool) (bool, error) {
	d := 0
	if def {
		d = 1
	}
	v, err := p.Int(question, d, between(0, 1))
	return v == 1, err
}

func atLeast(min int) func(int) string {
	return func(v int) string {
		if v < min {
			return fmt.Sprintf("Please enter a value of at least %d.", min)
		}
		return ""
	}
}

func between(min, max int) func(int) string {
	return func(v int) string {
		if v < min || v > max {
			return fmt.Sprintf("Please enter a value from %d to %d.", min, max)
		}
		return ""
	}
}

func positive(v float64) string {
	if v <= 0 {
		return "Please enter a positive value."
	}
	return ""
}

func nonNegative(v float64) string {
	if v < 0 {
		return "Please enter a value of at least 0."
	}
	return ""
}
