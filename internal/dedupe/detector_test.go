package dedupe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ppiankov/incidentcheck/internal/corpus"
	"github.com/ppiankov/incidentcheck/internal/model"
)

type scriptedComparer struct {
	outcomes []*model.ComparisonOutcome
	err      error
	calls    []string
}

func (c *scriptedComparer) Compare(ctx context.Context, newContent, existing string) (*model.ComparisonOutcome, error) {
	c.calls = append(c.calls, existing)
	if c.err != nil {
		return nil, c.err
	}
	out := c.outcomes[0]
	c.outcomes = c.outcomes[1:]
	return out, nil
}

func newCorpus(t *testing.T, files map[string]string) corpus.Store {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return corpus.NewDirStore(root)
}

func TestFindCandidates(t *testing.T) {
	store := newCorpus(t, map[string]string{
		"articles/2023/bybit.md":      "old",
		"articles/2024/bybit.md":      "older",
		"articles/bybit.md":           "flat",
		"articles/bybit-hack.md":      "other",
		"articles/drafts/bybit.md":    "not a year dir",
		"articles/2024/2024/bybit.md": "too deep",
	})
	d := NewDetector(store, &scriptedComparer{}, Options{})

	got, err := d.FindCandidates(context.Background(), "submissions/bybit.md")
	if err != nil {
		t.Fatalf("FindCandidates failed: %v", err)
	}
	want := []string{"articles/2023/bybit.md", "articles/2024/bybit.md", "articles/bybit.md"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestFindCandidates_MissingDir(t *testing.T) {
	d := NewDetector(newCorpus(t, nil), &scriptedComparer{}, Options{Dirs: []string{"articles", "reports"}})
	got, err := d.FindCandidates(context.Background(), "x.md")
	if err != nil || len(got) != 0 {
		t.Errorf("FindCandidates() = %v, %v", got, err)
	}
}

func TestCheckDuplication_NoCandidatesSkipsOracle(t *testing.T) {
	comparer := &scriptedComparer{}
	d := NewDetector(newCorpus(t, map[string]string{"articles/other.md": "x"}), comparer, Options{})

	v, err := d.CheckDuplication(context.Background(), "draft", "new.md")
	if err != nil {
		t.Fatal(err)
	}
	if v.IsDuplicate || v.Comparison != nil {
		t.Errorf("Expected clean verdict, got %+v", v)
	}
	if len(comparer.calls) != 0 {
		t.Errorf("Expected no oracle calls, got %d", len(comparer.calls))
	}
}

func TestCheckDuplication_DecisionRule(t *testing.T) {
	tests := []struct {
		name          string
		outcomes      []*model.ComparisonOutcome
		wantDuplicate bool
		wantMatched   string
		wantCalls     int
	}{
		{
			name:          "similar without new information is duplicate",
			outcomes:      []*model.ComparisonOutcome{{SimilarityScore: 0.81}},
			wantDuplicate: true,
			wantMatched:   "articles/2023/a.md",
			wantCalls:     1,
		},
		{
			name:        "new information stops without duplicate",
			outcomes:    []*model.ComparisonOutcome{{SimilarityScore: 0.95, HasNewInformation: true}},
			wantMatched: "articles/2023/a.md",
			wantCalls:   1,
		},
		{
			name: "inconclusive moves to next candidate",
			outcomes: []*model.ComparisonOutcome{
				{SimilarityScore: 0.8},
				{SimilarityScore: 0.9},
			},
			wantDuplicate: true,
			wantMatched:   "articles/a.md",
			wantCalls:     2,
		},
		{
			name: "nothing conclusive",
			outcomes: []*model.ComparisonOutcome{
				{SimilarityScore: 0.3},
				{SimilarityScore: 0.5},
			},
			wantCalls: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newCorpus(t, map[string]string{
				"articles/2023/a.md": "first",
				"articles/a.md":      "second",
			})
			comparer := &scriptedComparer{outcomes: tt.outcomes}
			d := NewDetector(store, comparer, Options{})

			v, err := d.CheckDuplication(context.Background(), "draft", "a.md")
			if err != nil {
				t.Fatal(err)
			}
			if v.IsDuplicate != tt.wantDuplicate {
				t.Errorf("IsDuplicate = %v, want %v", v.IsDuplicate, tt.wantDuplicate)
			}
			if v.MatchedPath != tt.wantMatched {
				t.Errorf("MatchedPath = %q, want %q", v.MatchedPath, tt.wantMatched)
			}
			if tt.wantMatched == "" && v.Comparison != nil {
				t.Errorf("Expected no comparison attached, got %+v", v.Comparison)
			}
			if len(comparer.calls) != tt.wantCalls {
				t.Errorf("Expected %d oracle calls, got %d", tt.wantCalls, len(comparer.calls))
			}
		})
	}
}

func TestCheckDuplication_ConfigurableThreshold(t *testing.T) {
	store := newCorpus(t, map[string]string{"articles/a.md": "x"})
	comparer := &scriptedComparer{outcomes: []*model.ComparisonOutcome{{SimilarityScore: 0.81}}}
	d := NewDetector(store, comparer, Options{Threshold: 0.9})

	v, err := d.CheckDuplication(context.Background(), "draft", "a.md")
	if err != nil {
		t.Fatal(err)
	}
	if v.IsDuplicate {
		t.Error("Expected 0.81 to be below a 0.9 threshold")
	}
}

func TestCheckDuplication_ComparerErrorIsFatal(t *testing.T) {
	store := newCorpus(t, map[string]string{"articles/a.md": "x"})
	boom := errors.New("schema violation")
	d := NewDetector(store, &scriptedComparer{err: boom}, Options{})

	if _, err := d.CheckDuplication(context.Background(), "draft", "a.md"); !errors.Is(err, boom) {
		t.Errorf("Expected comparer error, got %v", err)
	}
}

func TestDuplicateError(t *testing.T) {
	if DuplicateError(nil) != nil || DuplicateError(&model.DuplicationVerdict{}) != nil {
		t.Error("Expected nil for non-duplicate verdicts")
	}
	err := DuplicateError(&model.DuplicationVerdict{
		IsDuplicate: true,
		MatchedPath: "articles/a.md",
		Comparison:  &model.ComparisonOutcome{SimilarityScore: 0.92},
	})
	if !errors.Is(err, ErrDuplicateContent) {
		t.Errorf("Expected ErrDuplicateContent, got %v", err)
	}
	if err.Error() != "duplicate content: matches articles/a.md (similarity 0.92)" {
		t.Errorf("Unexpected message: %v", err)
	}
}
