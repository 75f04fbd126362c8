package lexical

import (
	"math"
	"testing"
)

func testCorpus() [][]string {
	return [][]string{
		{"wireless", "headphones", "noise", "cancelling"},
		{"wired", "headphones", "studio", "monitor"},
		{"usb", "cable", "braided", "charging"},
		{"laptop", "stand", "aluminum"},
	}
}

func TestScore_MatchingDocsScoreHigher(t *testing.T) {
	ix := Build(testCorpus())

	scores := ix.Score([]string{"headphones"})
	if len(scores) != 4 {
		t.Fatalf("expected dense vector of 4, got %d", len(scores))
	}
	if scores[0] <= 0 || scores[1] <= 0 {
		t.Errorf("docs containing the term must score > 0: %v", scores)
	}
	if scores[2] != 0 || scores[3] != 0 {
		t.Errorf("docs without the term must score 0: %v", scores)
	}
}

func TestScore_RarerTermScoresHigher(t *testing.T) {
	ix := Build(testCorpus())

	// "noise" appears in one doc, "headphones" in two. Both docs have the
	// same length, so IDF dominates.
	noise := ix.Score([]string{"noise"})
	common := ix.Score([]string{"headphones"})
	if noise[0] <= common[0] {
		t.Errorf("rare term should outscore common term: noise=%g headphones=%g", noise[0], common[0])
	}
}

func TestScore_UnknownAndEmptyQueries(t *testing.T) {
	ix := Build(testCorpus())

	for _, scores := range [][]float64{
		ix.Score([]string{"zzzznonexistent"}),
		ix.Score(nil),
	} {
		if len(scores) != 4 {
			t.Fatalf("expected dense vector of 4, got %d", len(scores))
		}
		for i, s := range scores {
			if s != 0 {
				t.Errorf("doc %d: expected 0, got %g", i, s)
			}
		}
	}
}

func TestScore_MultiTermAccumulates(t *testing.T) {
	ix := Build(testCorpus())

	single := ix.Score([]string{"wireless"})
	multi := ix.Score([]string{"wireless", "noise"})
	if multi[0] <= single[0] {
		t.Errorf("second matching term should increase the score: %g vs %g", multi[0], single[0])
	}
}

func TestScore_Deterministic(t *testing.T) {
	ix := Build(testCorpus())
	q := []string{"headphones", "cable"}

	first := ix.Score(q)
	for i := 0; i < 10; i++ {
		got := ix.Score(q)
		for j := range got {
			if got[j] != first[j] {
				t.Fatalf("scores not deterministic at doc %d: %g vs %g", j, got[j], first[j])
			}
		}
	}
}

func TestBuild_EmptyCorpus(t *testing.T) {
	ix := Build(nil)
	if ix.Len() != 0 {
		t.Errorf("expected empty index, got len %d", ix.Len())
	}
	if scores := ix.Score([]string{"anything"}); len(scores) != 0 {
		t.Errorf("expected empty score vector, got %v", scores)
	}
}

func TestIDF_NeverNegative(t *testing.T) {
	// A term present in every document would have negative raw IDF.
	corpus := [][]string{
		{"common", "alpha"},
		{"common", "beta"},
		{"common", "gamma"},
	}
	ix := Build(corpus)

	scores := ix.Score([]string{"common"})
	for i, s := range scores {
		if s <= 0 {
			t.Errorf("doc %d: ubiquitous term must still contribute positively, got %g", i, s)
		}
	}
}

func TestNormalize_MapsIntoUnitRange(t *testing.T) {
	norm := Normalize([]float64{2, 4, 1, 0})

	want := []float64{0.5, 1, 0.25, 0}
	for i := range want {
		if math.Abs(norm[i]-want[i]) > 1e-12 {
			t.Errorf("norm[%d] = %g, want %g", i, norm[i], want[i])
		}
	}
}

func TestNormalize_AllZeros(t *testing.T) {
	norm := Normalize([]float64{0, 0, 0})
	for i, s := range norm {
		if s != 0 {
			t.Errorf("norm[%d] = %g, want 0", i, s)
		}
	}
}
