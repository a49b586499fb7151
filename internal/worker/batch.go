package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/erosion/internal/assess"
	"github.com/ppiankov/erosion/internal/model"
)

// Assessor produces one category's assessment
type Assessor interface {
	Assess(ctx context.Context, req assess.Request) (*model.EnhancedAssessment, error)
}

// AssessResult is the outcome of one category in a batch
type AssessResult struct {
	Category   string
	Assessment *model.EnhancedAssessment
	Error      error
}

// BatchAssessor assesses many categories concurrently. Debates for
// different categories run in parallel; stages within a debate stay sequential.
type BatchAssessor struct {
	assessor    Assessor
	concurrency int
}

// NewBatchAssessor creates a batch assessor
func NewBatchAssessor(assessor Assessor, concurrency int) *BatchAssessor {
	return &BatchAssessor{
		assessor:    assessor,
		concurrency: concurrency,
	}
}

// AssessAll runs every request and returns results in request order
func (b *BatchAssessor) AssessAll(ctx context.Context, reqs []assess.Request) []AssessResult {
	results := Map(ctx, b.concurrency, reqs, func(ctx context.Context, req assess.Request) AssessResult {
		if err := ctx.Err(); err != nil {
			return AssessResult{Category: req.Category, Error: err}
		}
		a, err := b.assessor.Assess(ctx, req)
		return AssessResult{Category: req.Category, Assessment: a, Error: err}
	})

	// Requests the pool never ran after cancellation come back zero
	for i := range results {
		if results[i] == (AssessResult{}) {
			err := ctx.Err()
			if err == nil {
				err = errNotRun
			}
			results[i] = AssessResult{Category: reqs[i].Category, Error: err}
		}
	}
	return results
}

var errNotRun = errors.New("category was not assessed")

// ReadLines reads a list file: one entry per line, blank lines and
// #-comments skipped, duplicates dropped
func ReadLines(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return lines, nil
}
