package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/reviewloom-cli/internal/pipeline"
)

func TestAnalyzeBatch_PerFileDirsWithCollisionSuffix(t *testing.T) {
	withConfig(t, nil)
	home := t.TempDir()

	// Two exports with the same basename in different directories
	d1 := filepath.Join(home, "d1")
	d2 := filepath.Join(home, "d2")
	if err := os.MkdirAll(d1, 0o755); err != nil {
		t.Fatalf("mkdir d1: %v", err)
	}
	if err := os.MkdirAll(d2, 0o755); err != nil {
		t.Fatalf("mkdir d2: %v", err)
	}
	writeSample(t, d1, "reviews.csv", "40")
	writeSample(t, d2, "reviews.csv", "40")

	out := filepath.Join(home, "out")
	runCmd(t, "analyze-batch", filepath.Join(home, "d*", "reviews.csv"), "-o", out, "-q")

	for _, sub := range []string{"reviews", "reviews__2"} {
		if _, err := os.Stat(filepath.Join(out, sub, pipeline.AnalysisFile)); err != nil {
			t.Fatalf("missing %s/%s: %v", sub, pipeline.AnalysisFile, err)
		}
	}
}

func TestAnalyzeBatch_KeepGoing(t *testing.T) {
	withConfig(t, nil)
	home := t.TempDir()
	good := writeSample(t, home, "good.csv", "40")
	bad := filepath.Join(home, "bad.csv")
	// No rating column: every row is dropped and tier-1 finds nothing.
	if err := os.WriteFile(bad, []byte("Review\nqwerty\n"), 0o644); err != nil {
		t.Fatalf("write bad: %v", err)
	}
	out := filepath.Join(home, "out")

	if err := execCmd("analyze-batch", bad, good, "-o", out, "-q"); err == nil {
		t.Fatal("expected failure without --keep-going")
	}
	if err := execCmd("analyze-batch", bad, good, "-o", out, "--keep-going", "-q"); err == nil {
		t.Fatal("expected summary error with --keep-going")
	}
	if _, err := os.Stat(filepath.Join(out, "good", pipeline.AnalysisFile)); err != nil {
		t.Fatalf("good file not analyzed with --keep-going: %v", err)
	}
}

func TestAnalyzeBatch_NoMatches(t *testing.T) {
	withConfig(t, nil)
	if err := execCmd("analyze-batch", filepath.Join(t.TempDir(), "*.csv")); err == nil {
		t.Fatal("expected error when no inputs match")
	}
}
