package prompt

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/valpere/calrefine/internal/validator"
	"github.com/valpere/calrefine/internal/zones"
)

func newPrompter(input string) (*Prompter, *bytes.Buffer, *test.Hook) {
	log, hook := test.NewNullLogger()
	now := func() time.Time { return time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC) }
	v := validator.New(zones.NewRegistry("Asia/Singapore", "America/New_York", "UTC"), now)

	var out bytes.Buffer
	return New(strings.NewReader(input), &out, v, log), &out, hook
}

func warnings(hook *test.Hook) int {
	n := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			n++
		}
	}
	return n
}

func TestPeriod(t *testing.T) {
	p, out, hook := newPrompter("2022\n3\n2023\n1\n")

	got, err := p.Period()
	if err != nil {
		t.Fatalf("Period failed: %v", err)
	}
	want := validator.Period{StartYear: 2022, StartMonth: 3, EndYear: 2023, EndMonth: 1}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
	if warnings(hook) != 0 {
		t.Errorf("expected no warnings, got %d", warnings(hook))
	}
	if !strings.Contains(out.String(), "Enter the end month: ") {
		t.Errorf("questions not written: %q", out.String())
	}
}

func TestPeriod_Reprompts(t *testing.T) {
	input := strings.Join([]string{
		"abc",  // not a number
		"-1",   // negative
		"2030", // future
		"2024", // ok
		"13",   // out of range
		"7",    // future month of current year
		"5",    // ok
		"2023", // before start
		"2024", // ok
		"4",    // before start month
		"6",    // ok
	}, "\n") + "\n"
	p, _, hook := newPrompter(input)

	got, err := p.Period()
	if err != nil {
		t.Fatalf("Period failed: %v", err)
	}
	want := validator.Period{StartYear: 2024, StartMonth: 5, EndYear: 2024, EndMonth: 6}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
	if n := warnings(hook); n != 7 {
		t.Errorf("expected 7 warnings, got %d", n)
	}
}

func TestPeriod_EOF(t *testing.T) {
	p, _, _ := newPrompter("2022\n")
	if _, err := p.Period(); !errors.Is(err, ErrNoInput) {
		t.Errorf("expected ErrNoInput, got %v", err)
	}
}

func TestTimezones_Default(t *testing.T) {
	p, out, _ := newPrompter("\nAmerica/New_York\n")

	source, target, err := p.Timezones(ZoneDefaults{Detected: "Asia/Singapore", System: "UTC"})
	if err != nil {
		t.Fatalf("Timezones failed: %v", err)
	}
	if source != "Asia/Singapore" || target != "America/New_York" {
		t.Errorf("unexpected zones %q %q", source, target)
	}
	if !strings.Contains(out.String(), "(default: Asia/Singapore)") {
		t.Errorf("default not shown: %q", out.String())
	}
	if !strings.Contains(out.String(), "Your system timezone is: UTC") {
		t.Errorf("system zone not shown: %q", out.String())
	}
}

func TestTimezones_Reprompts(t *testing.T) {
	input := "Mars/Base\nUTC\nUTC\nEurope/Nowhere\nUTC\nAsia/Singapore\n"
	p, _, hook := newPrompter(input)

	source, target, err := p.Timezones(ZoneDefaults{Detected: "UTC", System: "UTC"})
	if err != nil {
		t.Fatalf("Timezones failed: %v", err)
	}
	if source != "UTC" || target != "Asia/Singapore" {
		t.Errorf("unexpected zones %q %q", source, target)
	}
	if n := warnings(hook); n != 2 {
		t.Errorf("expected 2 warnings, got %d", n)
	}
}

func TestTimezones_ConfiguredDefaults(t *testing.T) {
	p, out, _ := newPrompter("\n\n")

	source, target, err := p.Timezones(ZoneDefaults{
		Detected: "UTC",
		System:   "UTC",
		Source:   "Asia/Singapore",
		Target:   "America/New_York",
	})
	if err != nil {
		t.Fatalf("Timezones failed: %v", err)
	}
	if source != "Asia/Singapore" || target != "America/New_York" {
		t.Errorf("configured zones not used: %q %q", source, target)
	}
	if !strings.Contains(out.String(), "Enter the target timezone (default: America/New_York)") {
		t.Errorf("target default not shown: %q", out.String())
	}
	if !strings.Contains(out.String(), "Your IP-based timezone is: UTC") {
		t.Errorf("detected zone not shown: %q", out.String())
	}
}

func TestTimezones_EmptyTargetWithoutDefault(t *testing.T) {
	p, _, hook := newPrompter("UTC\n\nUTC\nUTC\n")

	_, target, err := p.Timezones(ZoneDefaults{Detected: "UTC", System: "UTC"})
	if err != nil {
		t.Fatalf("Timezones failed: %v", err)
	}
	if target != "UTC" || warnings(hook) != 1 {
		t.Errorf("expected one re-prompt then UTC, got %q after %d warnings", target, warnings(hook))
	}
}

func TestTimezones_EOF(t *testing.T) {
	p, _, _ := newPrompter("UTC\n")
	if _, _, err := p.Timezones(ZoneDefaults{Detected: "UTC", System: "UTC"}); !errors.Is(err, ErrNoInput) {
		t.Errorf("expected ErrNoInput, got %v", err)
	}
}

func TestFilenames(t *testing.T) {
	raw, refined := Filenames(validator.Period{StartYear: 2022, StartMonth: 1, EndYear: 2022, EndMonth: 12})
	if raw != "raw_scraped_data_from_2022_1_to_2022_12.csv" {
		t.Errorf("unexpected raw name %q", raw)
	}
	if refined != "refined_scraped_data_from_2022_1_to_2022_12.csv" {
		t.Errorf("unexpected refined name %q", refined)
	}
}

