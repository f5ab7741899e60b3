package tui

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"cdfinder/internal/catalog"
	"cdfinder/internal/identification"
	"cdfinder/internal/services/llm"
	"cdfinder/internal/session"
)

type staticLoader []catalog.Record

func (l staticLoader) LoadAll(context.Context) ([]catalog.Record, error) {
	return append([]catalog.Record(nil), l...), nil
}

type stubAI struct {
	label string
	specs identification.Specs
}

func (s stubAI) IdentifyImage(context.Context, llm.Image) (string, error) { return s.label, nil }

func (s stubAI) LookupSpecs(context.Context, string) (identification.Specs, error) {
	return s.specs, nil
}

func newModel(t *testing.T, ai identification.Service, credential string) Model {
	t.Helper()
	loader := staticLoader{
		{Label: "Sony CDP-227ESD", DAC: "2 x PCM56P-J & YM3414", Laser: "KSS-151A"},
		{Label: "Denon DCD-1500", DAC: "PCM54HP", Laser: ""},
	}
	s := session.New(loader, ai, session.Options{Catalog: catalog.DefaultOptions(), Credential: credential})
	m := New(context.Background(), s, nil)
	m = step(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	return step(t, m, m.refreshCmd()())
}

func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func stepCmd(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	return step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func TestViewShowsCatalogAndIndicators(t *testing.T) {
	m := newModel(t, nil, "")
	view := m.View()
	for _, want := range []string{"2 MODELS READY", "AI OFF", "Sony CDP-227ESD", "DATABASE", "KSS-151A", "2 models ready"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	if !strings.Contains(renderCard(catalog.Record{Label: "X", Origin: catalog.OriginAuthoritative}), "Laser: -") {
		t.Fatal("expected dash for absent laser")
	}
}

func TestTypingFiltersResults(t *testing.T) {
	m := newModel(t, nil, "")
	m = typeText(t, m, "dcd")
	if got := m.session.Query(); got != "dcd" {
		t.Fatalf("expected session query to follow input, got %q", got)
	}
	view := m.View()
	if !strings.Contains(view, "Denon DCD-1500") || strings.Contains(view, "Sony CDP-227ESD") {
		t.Fatalf("unexpected filtered view:\n%s", view)
	}
}

func TestSearchWithAIOnlyWhenOffered(t *testing.T) {
	ai := stubAI{specs: identification.Specs{DAC: "TDA1541A", Laser: "CDM-1"}}
	m := newModel(t, ai, "sk-or-v1-0123456789")

	m, cmd := stepCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlA})
	if cmd != nil {
		t.Fatal("ctrl+a should do nothing while results are showing")
	}

	m = typeText(t, m, "Philips CD304")
	if !strings.Contains(m.View(), "ctrl+a search with AI") {
		t.Fatalf("expected AI hint in view:\n%s", m.View())
	}
	m, cmd = stepCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlA})
	if cmd == nil || !m.working {
		t.Fatal("expected ctrl+a to start an AI search")
	}
	m = step(t, m, cmd())
	if m.working {
		t.Fatal("expected work to finish")
	}
	if got := m.input.Value(); got != "PHILIPS CD304" {
		t.Fatalf("expected input to show generated label, got %q", got)
	}
	view := m.View()
	if !strings.Contains(view, "AI SEARCHED") || !strings.Contains(view, "TDA1541A") {
		t.Fatalf("expected generated card in view:\n%s", view)
	}
}

func TestImageModeProcessesDataURL(t *testing.T) {
	ai := stubAI{label: "Sony CDP-227ESD"}
	m := newModel(t, ai, "sk-or-v1-0123456789")

	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	if m.mode != modeImage {
		t.Fatal("expected image mode")
	}
	url := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte{0xff, 0xd8, 0xff})
	m = typeText(t, m, url)
	if m.session.Query() != "" {
		t.Fatalf("image input must not change the query, got %q", m.session.Query())
	}
	m, cmd := stepCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected enter to start identification")
	}
	if m.mode != modeQuery {
		t.Fatal("expected return to query mode")
	}
	m = step(t, m, cmd())
	if got := m.input.Value(); got != "Sony CDP-227ESD" {
		t.Fatalf("expected identified label as query, got %q", got)
	}
}

func TestImageModeReportsLoadErrors(t *testing.T) {
	m := newModel(t, stubAI{label: "x"}, "sk-or-v1-0123456789")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	m = typeText(t, m, "/does/not/exist.jpg")
	m, cmd := stepCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = step(t, m, cmd())
	if !m.isError || !strings.HasPrefix(m.status, "Error:") {
		t.Fatalf("expected error status, got %q", m.status)
	}
}

func TestCameraKeyHiddenWithoutCamera(t *testing.T) {
	m := newModel(t, nil, "")
	if strings.Contains(m.View(), "ctrl+p") {
		t.Fatal("camera hint shown without camera")
	}
	if _, cmd := stepCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlP}); cmd != nil {
		t.Fatal("ctrl+p should be ignored without camera")
	}
}
