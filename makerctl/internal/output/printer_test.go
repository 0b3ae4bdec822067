package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrinter_PlainOutput(t *testing.T) {
	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	p := NewPrinterWithWriters(out, errOut, false, false)

	p.Info("listing %d models", 3)
	p.Success("done")
	p.Warning("slow response")
	p.Error("boom")
	p.Print("plain")

	stdout := out.String()
	if !strings.Contains(stdout, "listing 3 models") {
		t.Errorf("info missing: %q", stdout)
	}
	if !strings.Contains(stdout, "[OK] done") {
		t.Errorf("success missing: %q", stdout)
	}
	if !strings.Contains(stdout, "plain") {
		t.Errorf("plain print missing: %q", stdout)
	}

	stderr := errOut.String()
	if !strings.Contains(stderr, "[WARN] slow response") {
		t.Errorf("warning missing: %q", stderr)
	}
	if !strings.Contains(stderr, "[ERROR] boom") {
		t.Errorf("error missing: %q", stderr)
	}
}

func TestPrinter_QuietSuppressesAllButErrors(t *testing.T) {
	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	p := NewPrinterWithWriters(out, errOut, false, true)

	p.Info("hidden")
	p.Success("hidden")
	p.Warning("hidden")
	p.Print("hidden")
	p.Error("still visible")

	if out.Len() != 0 {
		t.Errorf("quiet printer wrote to stdout: %q", out.String())
	}
	if !strings.Contains(errOut.String(), "still visible") {
		t.Errorf("errors must not be suppressed: %q", errOut.String())
	}
}

func TestPrinter_BoldAndDimPassThroughWithoutColors(t *testing.T) {
	p := NewPrinterWithWriters(nil, nil, false, false)

	if got := p.Bold("text"); got != "text" {
		t.Errorf("Bold without colors = %q", got)
	}
	if got := p.Dim("text"); got != "text" {
		t.Errorf("Dim without colors = %q", got)
	}
}

func TestTable_RendersHeaderAndRows(t *testing.T) {
	buf := new(bytes.Buffer)
	table := NewTableWithWriter(buf, []string{"ID", "NAME"})
	table.AddRow([]string{"m-1", "Benchy"})
	table.AddRows([][]string{{"m-2", "Calibration Cube"}})
	table.Render()

	out := buf.String()
	for _, want := range []string{"ID", "NAME", "m-1", "Benchy", "Calibration Cube"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}
