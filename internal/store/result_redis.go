package store

import (
	"context"
	"encoding/json"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

// Result records what an extraction job produced: where the artifacts
// landed and the headline numbers.
type Result struct {
	OutputDir     string            `json:"output_dir"`
	FileHash      string            `json:"file_hash"`
	Method        string            `json:"method"`
	PageCount     int               `json:"page_count"`
	FragmentCount int               `json:"fragment_count"`
	Artifacts     map[string]string `json:"artifacts"`
	S3Keys        []string          `json:"s3_keys,omitempty"`
}

// ResultStore persists job results in Redis hashes keyed by job ID.
type ResultStore struct {
	client *redis.Client
}

func NewResultStore(redisURL string) (*ResultStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opt)
	if err := c.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &ResultStore{client: c}, nil
}

func (s *ResultStore) Close() error { return s.client.Close() }

func (s *ResultStore) resultKey(jobID string) string {
	return fmt.Sprintf("job:%s:result", jobID)
}

// Save stores the result for a job.
func (s *ResultStore) Save(ctx context.Context, jobID string, r Result) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return s.client.Set(ctx, s.resultKey(jobID), b, 0).Err()
}

// Get loads the result for a job. The second return is false when no
// result exists yet.
func (s *ResultStore) Get(ctx context.Context, jobID string) (Result, bool, error) {
	raw, err := s.client.Get(ctx, s.resultKey(jobID)).Result()
	if err == redis.Nil {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, err
	}
	var r Result
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return Result{}, false, fmt.Errorf("unmarshal result: %w", err)
	}
	return r, true, nil
}
