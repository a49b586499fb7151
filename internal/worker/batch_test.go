package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/erosion/internal/assess"
	"github.com/ppiankov/erosion/internal/model"
)

type mockAssessor struct {
	failFor string
}

func (m *mockAssessor) Assess(_ context.Context, req assess.Request) (*model.EnhancedAssessment, error) {
	if req.Category == m.failFor {
		return nil, errors.New("assessment failed")
	}
	return &model.EnhancedAssessment{Category: req.Category, Status: model.StatusStable}, nil
}

func TestBatchAssessor_AssessAll(t *testing.T) {
	b := NewBatchAssessor(&mockAssessor{failFor: "igs"}, 2)

	reqs := []assess.Request{{Category: "courts"}, {Category: "igs"}, {Category: "fiscal"}}
	results := b.AssessAll(context.Background(), reqs)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, res := range results {
		if res.Category != reqs[i].Category {
			t.Errorf("result %d: expected %s, got %s", i, reqs[i].Category, res.Category)
		}
	}
	if results[1].Error == nil {
		t.Error("expected error for igs")
	}
	if results[0].Assessment == nil || results[2].Assessment == nil {
		t.Error("expected assessments for successful categories")
	}
}

func TestBatchAssessor_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewBatchAssessor(&mockAssessor{}, 2).AssessAll(ctx, []assess.Request{{Category: "courts"}, {Category: "media"}})
	for _, res := range results {
		if !errors.Is(res.Error, context.Canceled) {
			t.Errorf("%s: expected context.Canceled, got %v", res.Category, res.Error)
		}
		if res.Category == "" {
			t.Error("expected category on canceled result")
		}
	}
}

func TestReadLines(t *testing.T) {
	content := `
# categories to assess
courts
fiscal
courts

  igs  
`
	path := filepath.Join(t.TempDir(), "categories.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	lines, err := ReadLines(path)
	if err != nil {
		t.Fatalf("ReadLines failed: %v", err)
	}

	expected := []string{"courts", "fiscal", "igs"}
	if len(lines) != len(expected) {
		t.Fatalf("expected %d lines, got %d", len(expected), len(lines))
	}
	for i, l := range lines {
		if l != expected[i] {
			t.Errorf("line %d: expected %s, got %s", i, expected[i], l)
		}
	}

	if _, err := ReadLines(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
