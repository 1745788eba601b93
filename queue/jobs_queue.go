package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type JobType string

const (
	JobTypeOrderConfirmation JobType = "order_confirmation"
	JobTypePaymentFailed     JobType = "payment_failed"
)

const MaxRetries = 5

var ErrJobNotFound = errors.New("job not found in failed queue")

type Job struct {
	ID         string                 `json:"id"`
	Type       JobType                `json:"type"`
	Data       map[string]interface{} `json:"data"`
	CreatedAt  time.Time              `json:"created_at"`
	RetryCount int                    `json:"retry_count"`

	// raw is the payload as popped, used to remove the job from :processing.
	raw string
}

func (j *Job) String(key string) string {
	if v, ok := j.Data[key].(string); ok {
		return v
	}
	return ""
}

type Queue struct {
	client     *redis.Client
	queueName  string
	processing string
	delayed    string
	failed     string
	logger     *zap.Logger
	now        func() time.Time
}

func NewQueue(redisURL, queueName string, logger *zap.Logger) (*Queue, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewQueueWithClient(client, queueName, logger), nil
}

func NewQueueWithClient(client *redis.Client, queueName string, logger *zap.Logger) *Queue {
	return &Queue{
		client:     client,
		queueName:  queueName,
		processing: queueName + ":processing",
		delayed:    queueName + ":delayed",
		failed:     queueName + ":failed",
		logger:     logger,
		now:        time.Now,
	}
}

func (q *Queue) Enqueue(ctx context.Context, jobType JobType, data map[string]interface{}) (*Job, error) {
	job := &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Data:      data,
		CreatedAt: q.now(),
	}

	jobJSON, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.RPush(ctx, q.queueName, jobJSON).Err(); err != nil {
		return nil, fmt.Errorf("failed to push job to queue: %w", err)
	}

	q.logger.Info("enqueued job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
	return job, nil
}

// Dequeue blocks up to timeout for a job and parks it on :processing.
// It returns nil, nil when the timeout elapses.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	result, err := q.client.BLPop(ctx, timeout, q.queueName).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job from queue: %w", err)
	}

	if len(result) < 2 {
		return nil, fmt.Errorf("unexpected BLPOP result format")
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	job.raw = result[1]
	if job.Data == nil {
		job.Data = map[string]interface{}{}
	}

	if err := q.client.RPush(ctx, q.processing, result[1]).Err(); err != nil {
		q.logger.Warn("failed to move job to processing queue", zap.String("job_id", job.ID), zap.Error(err))
	}

	return &job, nil
}

func (q *Queue) release(ctx context.Context, job *Job) error {
	raw := job.raw
	if raw == "" {
		b, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("failed to marshal job: %w", err)
		}
		raw = string(b)
	}
	return q.client.LRem(ctx, q.processing, 1, raw).Err()
}

func (q *Queue) CompleteJob(ctx context.Context, job *Job) error {
	if err := q.release(ctx, job); err != nil {
		return fmt.Errorf("failed to remove job from processing queue: %w", err)
	}

	q.logger.Info("completed job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
	return nil
}

// FailJob schedules the job for another attempt after 15s * 2^(n-1), or moves
// it to :failed once MaxRetries is exceeded.
func (q *Queue) FailJob(ctx context.Context, job *Job, cause error) error {
	if err := q.release(ctx, job); err != nil {
		q.logger.Warn("failed to remove job from processing queue", zap.String("job_id", job.ID), zap.Error(err))
	}

	job.RetryCount++
	now := q.now()
	job.Data["last_error"] = cause.Error()
	job.Data["failed_at"] = now

	if job.RetryCount <= MaxRetries {
		delay := time.Duration(15*(1<<(job.RetryCount-1))) * time.Second
		retryAt := now.Add(delay)
		job.Data["next_retry_at"] = retryAt
		job.Data["is_last_attempt"] = job.RetryCount == MaxRetries

		jobJSON, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("failed to marshal job: %w", err)
		}

		if err := q.client.ZAdd(ctx, q.delayed, &redis.Z{
			Score:  float64(retryAt.Unix()),
			Member: jobJSON,
		}).Err(); err != nil {
			q.logger.Warn("failed to add job to delayed queue, moving to failed queue", zap.Error(err))
			if err := q.client.RPush(ctx, q.failed, jobJSON).Err(); err != nil {
				return fmt.Errorf("failed to push job to failed queue: %w", err)
			}
			return nil
		}

		q.logger.Info("job scheduled for retry",
			zap.String("job_id", job.ID),
			zap.String("type", string(job.Type)),
			zap.Int("retry", job.RetryCount),
			zap.Duration("delay", delay),
			zap.NamedError("cause", cause))
		return nil
	}

	job.Data["all_retries_exhausted"] = true
	job.Data["final_failure_at"] = now
	jobJSON, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.RPush(ctx, q.failed, jobJSON).Err(); err != nil {
		return fmt.Errorf("failed to push job to failed queue: %w", err)
	}

	q.logger.Error("job moved to failed queue",
		zap.String("job_id", job.ID),
		zap.String("type", string(job.Type)),
		zap.Int("retries", job.RetryCount),
		zap.NamedError("cause", cause))
	return nil
}

// ProcessDelayedJobs moves every due delayed job back onto the main queue and
// reports how many were moved.
func (q *Queue) ProcessDelayedJobs(ctx context.Context) (int, error) {
	jobs, err := q.client.ZRangeByScore(ctx, q.delayed, &redis.ZRangeBy{
		Min: "0",
		Max: fmt.Sprintf("%d", q.now().Unix()),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get delayed jobs: %w", err)
	}

	moved := 0
	for _, jobJSON := range jobs {
		// ZRem first so two workers never promote the same job.
		removed, err := q.client.ZRem(ctx, q.delayed, jobJSON).Result()
		if err != nil {
			q.logger.Warn("failed to remove job from delayed queue", zap.Error(err))
			continue
		}
		if removed == 0 {
			continue
		}
		if err := q.client.RPush(ctx, q.queueName, jobJSON).Err(); err != nil {
			q.logger.Warn("failed to move delayed job to main queue", zap.Error(err))
			continue
		}
		moved++
	}

	if moved > 0 {
		q.logger.Debug("promoted delayed jobs", zap.Int("count", moved))
	}
	return moved, nil
}

// RetryJob requeues a job from :failed with its retry count reset.
func (q *Queue) RetryJob(ctx context.Context, jobID string) error {
	jobs, err := q.client.LRange(ctx, q.failed, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to list failed jobs: %w", err)
	}

	for _, jobJSON := range jobs {
		var job Job
		if err := json.Unmarshal([]byte(jobJSON), &job); err != nil {
			q.logger.Warn("skipping unreadable failed job", zap.Error(err))
			continue
		}
		if job.ID != jobID {
			continue
		}

		if err := q.client.LRem(ctx, q.failed, 1, jobJSON).Err(); err != nil {
			return fmt.Errorf("failed to remove job from failed queue: %w", err)
		}

		job.RetryCount = 0
		job.Data["manual_retry_at"] = q.now()
		delete(job.Data, "all_retries_exhausted")
		delete(job.Data, "final_failure_at")
		delete(job.Data, "is_last_attempt")

		updated, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("failed to marshal job: %w", err)
		}
		if err := q.client.RPush(ctx, q.queueName, updated).Err(); err != nil {
			return fmt.Errorf("failed to push job to main queue: %w", err)
		}

		q.logger.Info("manually requeued job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		return nil
	}

	return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
}

// FailedJobs lists jobs that exhausted their retries.
func (q *Queue) FailedJobs(ctx context.Context) ([]Job, error) {
	raw, err := q.client.LRange(ctx, q.failed, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list failed jobs: %w", err)
	}
	jobs := make([]Job, 0, len(raw))
	for _, r := range raw {
		var job Job
		if err := json.Unmarshal([]byte(r), &job); err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (q *Queue) IsLastAttempt(job *Job) bool {
	if isLast, ok := job.Data["is_last_attempt"].(bool); ok {
		return isLast
	}
	return job.RetryCount >= MaxRetries
}

func (q *Queue) Client() *redis.Client {
	return q.client
}

func (q *Queue) Close() error {
	return q.client.Close()
}
