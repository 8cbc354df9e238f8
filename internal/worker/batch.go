package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/chaincontext/chaincontext/internal/model"
)

// Answerer answers a single query. Declared here so the batch processor
// does not depend on the pipeline package.
type Answerer interface {
	Answer(ctx context.Context, query, userID string) *model.AnsweredResult
}

// AnswerJob answers one query through the pool.
type AnswerJob struct {
	Query    string
	UserID   string
	Answerer Answerer
}

// Execute runs the answer job.
func (j *AnswerJob) Execute(ctx context.Context) Result {
	return &AnswerResult{
		Query:  j.Query,
		Result: j.Answerer.Answer(ctx, j.Query, j.UserID),
	}
}

// AnswerResult is the outcome of one batch query.
type AnswerResult struct {
	Query  string
	Result *model.AnsweredResult
}

// GetError reports the query's processing error, if any.
func (r *AnswerResult) GetError() error {
	if r.Result != nil && r.Result.Error != "" {
		return fmt.Errorf("%s", r.Result.Error)
	}
	return nil
}

// BatchProcessor answers multiple queries concurrently.
type BatchProcessor struct {
	answerer    Answerer
	concurrency int
}

// NewBatchProcessor creates a new batch processor.
func NewBatchProcessor(answerer Answerer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		answerer:    answerer,
		concurrency: concurrency,
	}
}

// ProcessQueries answers the given queries concurrently.
func (b *BatchProcessor) ProcessQueries(ctx context.Context, queries []string, userID string) []*AnswerResult {
	if len(queries) == 0 {
		return []*AnswerResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for _, query := range queries {
		pool.Submit(&AnswerJob{
			Query:    query,
			UserID:   userID,
			Answerer: b.answerer,
		})
	}

	results := pool.Wait()

	answerResults := make([]*AnswerResult, len(results))
	for i, result := range results {
		answerResults[i] = result.(*AnswerResult)
	}

	return answerResults
}

// ProcessFile reads queries from a file and answers them concurrently.
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath, userID string) ([]*AnswerResult, error) {
	queries, err := ReadQueriesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}

	return b.ProcessQueries(ctx, queries, userID), nil
}

// ReadQueriesFromFile reads queries from a file (one per line).
func ReadQueriesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var queries []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Deduplicate queries
		if !seen[line] {
			seen[line] = true
			queries = append(queries, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return queries, nil
}
