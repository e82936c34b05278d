// Package prompt collects the scrape window and the timezones interactively,
// asking again after every invalid answer.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/valpere/calrefine/internal/validator"
)

// ErrNoInput is returned when input ends before a valid answer was given.
var ErrNoInput = errors.New("no more input")

// Prompter reads answers line by line from in and writes questions to out.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
	v   *validator.Validator
	log logrus.FieldLogger
}

func New(in io.Reader, out io.Writer, v *validator.Validator, log logrus.FieldLogger) *Prompter {
	return &Prompter{
		in:  bufio.NewScanner(in),
		out: out,
		v:   v,
		log: log,
	}
}

func (p *Prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return "", ErrNoInput
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// askInt repeats question until the answer is an integer accepted by check.
func (p *Prompter) askInt(question, field string, check func(int) error) (int, error) {
	for {
		answer, err := p.ask(question)
		if err != nil {
			return 0, err
		}

		n, err := strconv.Atoi(answer)
		if err != nil {
			p.log.Warnf("Invalid %s. %q is not a number", field, answer)
			continue
		}
		if err := check(n); err != nil {
			p.log.Warnf("Invalid %s. %v", field, err)
			continue
		}
		return n, nil
	}
}

// Period asks for the start year, start month, end year and end month in
// that order. Each field is re-asked until valid.
func (p *Prompter) Period() (validator.Period, error) {
	var (
		period validator.Period
		err    error
	)

	period.StartYear, err = p.askInt("Enter the start year: ", "start year", p.v.StartYear)
	if err != nil {
		return period, err
	}

	period.StartMonth, err = p.askInt("Enter the start month: ", "start month", func(m int) error {
		return p.v.StartMonth(period.StartYear, m)
	})
	if err != nil {
		return period, err
	}

	period.EndYear, err = p.askInt("Enter the end year: ", "end year", func(y int) error {
		return p.v.EndYear(period.StartYear, y)
	})
	if err != nil {
		return period, err
	}

	period.EndMonth, err = p.askInt("Enter the end month: ", "end month", func(m int) error {
		candidate := period
		candidate.EndMonth = m
		return p.v.EndMonth(candidate)
	})
	return period, err
}

// ZoneDefaults is what Timezones shows and falls back to.
type ZoneDefaults struct {
	Detected string
	System   string

	// Source answers an empty source prompt; Detected when empty.
	Source string
	// Target answers an empty target prompt when set.
	Target string
}

// Timezones asks for the source and target zones. Empty answers take the
// defaults. Both answers are asked again when either is invalid.
func (p *Prompter) Timezones(d ZoneDefaults) (source, target string, err error) {
	if d.Source == "" {
		d.Source = d.Detected
	}

	targetQuestion := "Enter the target timezone: "
	if d.Target != "" {
		targetQuestion = fmt.Sprintf("Enter the target timezone (default: %s): ", d.Target)
	}

	for {
		fmt.Fprintln(p.out)
		fmt.Fprintln(p.out, "Example timezone format: 'Asia/Singapore', 'America/New_York', 'Europe/London'")
		fmt.Fprintf(p.out, "Your IP-based timezone is: %s\n", d.Detected)
		fmt.Fprintf(p.out, "Your system timezone is: %s\n", d.System)

		source, err = p.ask(fmt.Sprintf("Enter the source timezone (default: %s): ", d.Source))
		if err != nil {
			return "", "", err
		}
		if source == "" {
			source = d.Source
		}

		target, err = p.ask(targetQuestion)
		if err != nil {
			return "", "", err
		}
		if target == "" {
			target = d.Target
		}

		if err := p.v.Timezone("source", source); err != nil {
			p.log.Warnf("%v. Please enter a valid timezone from the list.", err)
			continue
		}
		if err := p.v.Timezone("target", target); err != nil {
			p.log.Warnf("%v. Please enter a valid timezone from the list.", err)
			continue
		}
		return source, target, nil
	}
}

// Filenames derives the raw and refined CSV names for a scrape window.
func Filenames(period validator.Period) (raw, refined string) {
	suffix := fmt.Sprintf("from_%d_%d_to_%d_%d.csv", period.StartYear, period.StartMonth, period.EndYear, period.EndMonth)
	return "raw_scraped_data_" + suffix, "refined_scraped_data_" + suffix
}
