package data

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	jobQueue        = "docgen:jobs"
	jobStatusPrefix = "docgen:job:"
	jobStatusTTL    = 24 * time.Hour
)

// MustRedis parses the URL and returns a client or exits.
func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

// QueuedJob is the wire form of a generation request on the queue.
type QueuedJob struct {
	ID           string `json:"id"`
	RepoURL      string `json:"repo_url"`
	Space        string `json:"space,omitempty"`
	ExportFormat string `json:"export_format,omitempty"`
}

// EnqueueJob pushes a job onto the work queue and mirrors its status.
func EnqueueJob(ctx context.Context, rdb *redis.Client, job QueuedJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := rdb.LPush(ctx, jobQueue, payload).Err(); err != nil {
		return err
	}
	return SetJobStatus(ctx, rdb, job.ID, JobStatusQueued, "")
}

// DequeueJob blocks until a job is available or the timeout elapses. A nil
// job with nil error means the wait timed out.
func DequeueJob(ctx context.Context, rdb *redis.Client, timeout time.Duration) (*QueuedJob, error) {
	vals, err := rdb.BRPop(ctx, timeout, jobQueue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	// BRPop returns [key, value].
	if len(vals) < 2 {
		return nil, nil
	}
	var job QueuedJob
	if err := json.Unmarshal([]byte(vals[1]), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// SetJobStatus mirrors job progress into a redis hash for cheap polling.
func SetJobStatus(ctx context.Context, rdb *redis.Client, jobID, status, errMsg string) error {
	key := jobStatusPrefix + jobID
	fields := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	if errMsg != "" {
		fields["error"] = errMsg
	}
	if err := rdb.HSet(ctx, key, fields).Err(); err != nil {
		return err
	}
	return rdb.Expire(ctx, key, jobStatusTTL).Err()
}

// GetJobStatus returns the mirrored status hash, or nil when unknown.
func GetJobStatus(ctx context.Context, rdb *redis.Client, jobID string) (map[string]string, error) {
	vals, err := rdb.HGetAll(ctx, jobStatusPrefix+jobID).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, nil
	}
	return vals, nil
}
