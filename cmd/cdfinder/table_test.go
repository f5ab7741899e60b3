package main

import (
	"strings"
	"testing"

	"cdfinder/internal/catalog"
)

func TestRenderRecordsShowsDashAndBadge(t *testing.T) {
	out := renderRecords([]catalog.Record{
		{Label: "SONY CDP-101", DAC: "CX20017", Origin: catalog.OriginAuthoritative},
		{Label: "ESOTERIC X-1", DAC: "PCM1704", Laser: "VRDS", Origin: catalog.OriginGenerated},
	}, 0)
	for _, want := range []string{"SONY CDP-101", "CX20017", " - ", "DATABASE", "AI SEARCHED"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("AI", statusOK, "ON", false)
	if line != "  AI:            [OK] ON" {
		t.Fatalf("unexpected status line %q", line)
	}
	colored := renderStatusLine("AI", statusError, "", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected colored line, got %q", colored)
	}
}
