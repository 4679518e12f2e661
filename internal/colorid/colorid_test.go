package colorid

import (
	"os"
	"path/filepath"
	"testing"
)

func TestClassify(t *testing.T) {
	table := New([]Reference{
		{Name: "Red", RGB: [3]int{255, 0, 0}},
		{Name: "Blue", RGB: [3]int{0, 0, 255}},
		{Name: "White", RGB: [3]int{255, 255, 255}},
	})

	if got := table.Classify(250, 5, 5); got != "Red" {
		t.Errorf("expected Red, got %s", got)
	}
	if got := table.Classify(10, 20, 240); got != "Blue" {
		t.Errorf("expected Blue, got %s", got)
	}
	if got := table.Classify(240, 240, 250); got != "White" {
		t.Errorf("expected White, got %s", got)
	}
}

func TestClassify_BeyondThreshold(t *testing.T) {
	table := New([]Reference{
		{Name: "Red", RGB: [3]int{255, 0, 0}},
	})

	// black is 255 away from pure red, past the 120 cutoff
	if got := table.Classify(0, 0, 0); got != NoMatch {
		t.Errorf("expected %s, got %s", NoMatch, got)
	}
}

func TestClassify_EmptyTable(t *testing.T) {
	if got := Empty().Classify(128, 128, 128); got != NoMatch {
		t.Errorf("expected %s for empty table, got %s", NoMatch, got)
	}
}

func TestClassify_TieBreak(t *testing.T) {
	// two entries equidistant from the sample; the first one wins
	table := New([]Reference{
		{Name: "First", RGB: [3]int{100, 0, 0}},
		{Name: "Second", RGB: [3]int{140, 0, 0}},
	})

	if got := table.Classify(120, 0, 0); got != "First" {
		t.Errorf("expected First on tie, got %s", got)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "color_card.yaml")
	content := "- name: Red\n  rgb: [255, 0, 0]\n- name: Violet\n  rgb: [140, 0, 255]\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if table.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", table.Len())
	}
	if got := table.Classify(130, 10, 250); got != "Violet" {
		t.Errorf("expected Violet, got %s", got)
	}
}

func TestLoad_JSONCard(t *testing.T) {
	// the original rig shipped its calibration as JSON; that still parses
	path := filepath.Join(t.TempDir(), "color_card.json")
	content := `[{"name": "White", "rgb": [255, 255, 255]}]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got := table.Classify(250, 250, 250); got != "White" {
		t.Errorf("expected White, got %s", got)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
