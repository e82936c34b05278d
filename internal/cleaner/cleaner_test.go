package cleaner

import (
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/valpere/calrefine/internal/table"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func mustRead(t *testing.T, csv string) *table.Table {
	t.Helper()
	tbl, err := table.Read(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	return tbl
}

func TestClean_MissingColumns(t *testing.T) {
	tbl := mustRead(t, "year,date,event\n2022,Mon Jan 3,CPI\n")

	out := Clean(tbl, quietLogger())
	if !out.Empty() {
		t.Errorf("expected empty table, got %d rows", out.Len())
	}
}

func TestClean_FillsBlanks(t *testing.T) {
	tbl := mustRead(t, "year,date,time,currency,impact,event,actual,forecast,previous\n"+
		"2022,,  ,USD,,  ,1.2%,,\n")

	out := Clean(tbl, quietLogger())
	if out.Len() != 1 {
		t.Fatalf("expected 1 row, got %d", out.Len())
	}

	r := out.Rows[0]
	if r.Date != table.String("N/A") || r.Time != table.String("N/A") {
		t.Errorf("expected N/A date and time, got %+v %+v", r.Date, r.Time)
	}
	if r.Event != "N/A" {
		t.Errorf("expected N/A event, got %q", r.Event)
	}
	if r.Cell(table.ColImpact) != "N/A" || r.Cell(table.ColForecast) != "N/A" {
		t.Errorf("expected N/A passthrough cells, got %v", r.Cells)
	}
	if r.Cell(table.ColActual) != "1.2%" {
		t.Errorf("expected actual to be kept, got %q", r.Cell(table.ColActual))
	}
	if r.Year != table.Int(2022) {
		t.Errorf("expected year kept, got %+v", r.Year)
	}
}

func TestClean_NormalizesText(t *testing.T) {
	tbl := mustRead(t, "year,date,time,currency,impact,event,actual,forecast,previous\n"+
		"2022, Mon Jan 3 ,1:00PM,EUR,Low,  Café Index ,1,2,3\n")

	out := Clean(tbl, quietLogger())
	r := out.Rows[0]
	if r.Event != "Café Index" {
		t.Errorf("expected NFC-normalized trimmed event, got %q", r.Event)
	}
	if r.Date != table.String("Mon Jan 3") {
		t.Errorf("expected trimmed date, got %+v", r.Date)
	}
}

func TestClean_DoesNotMutateInput(t *testing.T) {
	tbl := mustRead(t, "year,date,time,currency,impact,event,actual,forecast,previous\n"+
		"2022,,,USD,,,,,\n")

	_ = Clean(tbl, quietLogger())
	if tbl.Rows[0].Date.Valid {
		t.Error("input table was modified")
	}
	if tbl.Rows[0].Cell(table.ColImpact) != "" {
		t.Error("input cells were modified")
	}
}
