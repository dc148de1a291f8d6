package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mlastra-dana/PerfilabPortal/internal/domain/refrange"
)

func TestDefault_Lookups(t *testing.T) {
	c := Default()

	glu, ok := c.Entry("glu")
	if !ok {
		t.Fatal("expected glu in default catalog")
	}
	if glu.Unit != "mg/dL" {
		t.Errorf("expected unit mg/dL, got %q", glu.Unit)
	}
	if glu.ResultType != refrange.Numeric {
		t.Errorf("expected numeric, got %s", glu.ResultType)
	}
	if got := glu.ReferenceText(); got != "70 - 99 mg/dL" {
		t.Errorf("expected '70 - 99 mg/dL', got %q", got)
	}

	protein, ok := c.Entry("ur-protein")
	if !ok {
		t.Fatal("expected ur-protein in default catalog")
	}
	if protein.ReferenceRange.Text != "NEG" {
		t.Errorf("expected NEG, got %q", protein.ReferenceRange.Text)
	}

	if len(c.Entries()) != 22 {
		t.Errorf("expected 22 entries, got %d", len(c.Entries()))
	}
	if len(c.Panels()) != 6 {
		t.Errorf("expected 6 panels, got %d", len(c.Panels()))
	}
}

func TestDefault_PanelsReferenceKnownEntries(t *testing.T) {
	c := Default()
	for _, p := range c.Panels() {
		entries := c.PanelEntries(p.ID)
		if len(entries) != len(p.ParameterIDs) {
			t.Errorf("panel %s: expected %d entries, got %d", p.ID, len(p.ParameterIDs), len(entries))
		}
		for i, e := range entries {
			if e.ID != p.ParameterIDs[i] {
				t.Errorf("panel %s: expected order %v", p.ID, p.ParameterIDs)
			}
		}
	}
}

func TestCatalog_AbsenceIsNotAnError(t *testing.T) {
	c := Default()
	if _, ok := c.Entry("does-not-exist"); ok {
		t.Error("expected missing entry")
	}
	if _, ok := c.Panel("does-not-exist"); ok {
		t.Error("expected missing panel")
	}
	if got := c.DisplayName("new-param"); got != "new-param" {
		t.Errorf("expected raw id fallback, got %q", got)
	}
	if got := c.PanelEntries("nope"); got != nil {
		t.Errorf("expected nil entries, got %v", got)
	}
}

func TestNew_SkipsUnknownPanelParameters(t *testing.T) {
	c, err := New(
		[]Entry{{ID: "a", DisplayName: "A", ResultType: refrange.Numeric}},
		[]Panel{{ID: "p", ParameterIDs: []string{"a", "pending-param"}}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries := c.PanelEntries("p")
	if len(entries) != 1 || entries[0].ID != "a" {
		t.Errorf("expected only entry a, got %v", entries)
	}
}

func TestNew_RejectsDuplicates(t *testing.T) {
	_, err := New([]Entry{
		{ID: "a", ResultType: refrange.Numeric},
		{ID: "a", ResultType: refrange.Numeric},
	}, nil)
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	_, err = New(nil, []Panel{{ID: "p"}, {ID: "p"}})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID for panels, got %v", err)
	}
}

func TestNew_RejectsInvalidResultType(t *testing.T) {
	if _, err := New([]Entry{{ID: "a", ResultType: "ratio"}}, nil); err == nil {
		t.Fatal("expected error for invalid result type")
	}
}

func TestPanel_ReturnsCopy(t *testing.T) {
	c := Default()
	p, _ := c.Panel("tiroides")
	p.ParameterIDs[0] = "mutated"
	again, _ := c.Panel("tiroides")
	if again.ParameterIDs[0] != "tsh" {
		t.Errorf("expected catalog to be immutable, got %q", again.ParameterIDs[0])
	}
}

func TestLoad_TOML(t *testing.T) {
	src := `
[[entries]]
id = "k"
display_name = "Potasio"
category = "Bioquimica"
unit = "mmol/L"
result_type = "numeric"
reference_range = { min = 3.5, max = 5.1 }

[[panels]]
id = "electrolitos"
display_name = "Electrolitos"
category = "Bioquimica"
parameter_ids = ["k"]
`
	c, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	k, ok := c.Entry("k")
	if !ok {
		t.Fatal("expected entry k")
	}
	if got := k.ReferenceText(); got != "3.5 - 5.1 mmol/L" {
		t.Errorf("expected '3.5 - 5.1 mmol/L', got %q", got)
	}
}

func TestLoad_UnknownField(t *testing.T) {
	src := `
[[entries]]
id = "k"
colour = "red"
result_type = "numeric"
`
	if _, err := Load(strings.NewReader(src)); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	if err := os.WriteFile(path, defaultDataset, 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.Panel("orina"); !ok {
		t.Error("expected orina panel")
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}
