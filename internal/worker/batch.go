package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"marketlens/internal/model"
)

// Analyzer runs the analysis pipeline over one dataset file.
type Analyzer interface {
	AnalyzeFile(ctx context.Context, path string) (*model.InsightBundle, error)
}

// AnalysisJob analyzes a single dataset file.
type AnalysisJob struct {
	Path     string
	Analyzer Analyzer
}

// Execute runs the analysis.
func (j *AnalysisJob) Execute(ctx context.Context) Result {
	bundle, err := j.Analyzer.AnalyzeFile(ctx, j.Path)
	return &AnalysisResult{
		Path:   j.Path,
		Bundle: bundle,
		Error:  err,
	}
}

// AnalysisResult is the outcome of one dataset analysis.
type AnalysisResult struct {
	Path   string
	Bundle *model.InsightBundle
	Error  error
}

// GetError returns the error from the analysis.
func (r *AnalysisResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes multiple dataset files concurrently. Each
// file gets its own bundle; a failed file never affects the others.
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
}

// NewBatchProcessor creates a batch processor.
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// ProcessPaths analyzes the given dataset files concurrently.
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*AnalysisResult {
	if len(paths) == 0 {
		return []*AnalysisResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	// Submit concurrently with the Wait drain below; a manifest larger
	// than the queue buffer would otherwise stall once the workers fill
	// the result channel.
	go func() {
		for _, path := range paths {
			pool.Submit(&AnalysisJob{
				Path:     path,
				Analyzer: b.analyzer,
			})
		}
		pool.Close()
	}()

	results := pool.Wait()

	analysisResults := make([]*AnalysisResult, len(results))
	for i, result := range results {
		analysisResults[i] = result.(*AnalysisResult)
	}

	return analysisResults
}

// ProcessManifest reads dataset paths from a manifest file and analyzes
// them concurrently.
func (b *BatchProcessor) ProcessManifest(ctx context.Context, manifestPath string) ([]*AnalysisResult, error) {
	paths, err := ReadPathsFromFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	return b.ProcessPaths(ctx, paths), nil
}

// ReadPathsFromFile reads dataset paths from a file, one per line.
// Empty lines and # comments are skipped; duplicates are dropped.
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
