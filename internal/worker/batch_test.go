package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"marketlens/internal/model"
)

// fakeAnalyzer succeeds for every path except those marked bad.
type fakeAnalyzer struct {
	badPaths map[string]bool
}

func (a *fakeAnalyzer) AnalyzeFile(ctx context.Context, path string) (*model.InsightBundle, error) {
	if a.badPaths[path] {
		return nil, fmt.Errorf("unreadable dataset: %s", path)
	}
	return &model.InsightBundle{RunID: path, Records: 10}, nil
}

func TestBatchProcessor_ProcessPaths_AllSucceed(t *testing.T) {
	processor := NewBatchProcessor(&fakeAnalyzer{}, 4)

	paths := []string{"a.csv", "b.csv", "c.xlsx"}
	results := processor.ProcessPaths(context.Background(), paths)

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Error != nil {
			t.Errorf("Unexpected error for %s: %v", r.Path, r.Error)
		}
		if r.Bundle == nil || r.Bundle.Records != 10 {
			t.Errorf("Expected bundle for %s", r.Path)
		}
	}
}

func TestBatchProcessor_ProcessPaths_ManifestLargerThanPool(t *testing.T) {
	// 30 files on a single worker overflows both channel buffers many
	// times over; the batch must still run to completion.
	processor := NewBatchProcessor(&fakeAnalyzer{}, 1)

	paths := make([]string, 30)
	for i := range paths {
		paths[i] = fmt.Sprintf("dataset-%02d.csv", i)
	}

	done := make(chan []*AnalysisResult, 1)
	go func() { done <- processor.ProcessPaths(context.Background(), paths) }()

	select {
	case results := <-done:
		if len(results) != 30 {
			t.Fatalf("Expected 30 results, got %d", len(results))
		}
	case <-time.After(3 * time.Second):
		t.Fatal("ProcessPaths stalled on a manifest larger than the worker pool")
	}
}

func TestBatchProcessor_ProcessPaths_FailureIsolated(t *testing.T) {
	processor := NewBatchProcessor(&fakeAnalyzer{badPaths: map[string]bool{"bad.csv": true}}, 2)

	results := processor.ProcessPaths(context.Background(), []string{"good.csv", "bad.csv"})

	var goodOK, badFailed bool
	for _, r := range results {
		switch r.Path {
		case "good.csv":
			goodOK = r.Error == nil && r.Bundle != nil
		case "bad.csv":
			badFailed = r.Error != nil && r.Bundle == nil
		}
	}
	if !goodOK {
		t.Error("Expected good.csv to succeed despite bad.csv failing")
	}
	if !badFailed {
		t.Error("Expected bad.csv to carry its error")
	}
}

func TestBatchProcessor_ProcessPaths_Empty(t *testing.T) {
	processor := NewBatchProcessor(&fakeAnalyzer{}, 2)

	results := processor.ProcessPaths(context.Background(), nil)

	if len(results) != 0 {
		t.Errorf("Expected no results, got %d", len(results))
	}
}

func TestReadPathsFromFile_SkipsCommentsAndDuplicates(t *testing.T) {
	content := strings.Join([]string{
		"# datasets to analyze",
		"apps.csv",
		"",
		"funnel.xlsx",
		"apps.csv",
		"  spaced.csv  ",
	}, "\n")

	path := filepath.Join(t.TempDir(), "manifest.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	paths, err := ReadPathsFromFile(path)
	if err != nil {
		t.Fatalf("ReadPathsFromFile failed: %v", err)
	}

	want := []string{"apps.csv", "funnel.xlsx", "spaced.csv"}
	if len(paths) != len(want) {
		t.Fatalf("Expected %d paths, got %d (%v)", len(want), len(paths), paths)
	}
	for i, p := range want {
		if paths[i] != p {
			t.Errorf("Path %d: expected %s, got %s", i, p, paths[i])
		}
	}
}

func TestReadPathsFromFile_MissingFile(t *testing.T) {
	if _, err := ReadPathsFromFile("/nonexistent/manifest.txt"); err == nil {
		t.Fatal("Expected error for missing manifest")
	}
}
