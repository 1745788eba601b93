package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"mocca-storefront/queue"
	"mocca-storefront/services/email"
)

// Worker delivers order notifications queued by checkout.
type Worker struct {
	queue        *queue.Queue
	sender       email.EmailSender
	logger       *zap.Logger
	pollTimeout  time.Duration
	delayedEvery time.Duration

	shutdown  chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

func NewWorker(q *queue.Queue, sender email.EmailSender, logger *zap.Logger) *Worker {
	return &Worker{
		queue:        q,
		sender:       sender,
		logger:       logger,
		pollTimeout:  5 * time.Second,
		delayedEvery: 10 * time.Second,
	}
}

// Start launches concurrency job loops plus one loop that promotes due
// delayed jobs. A stopped worker can be started again.
func (w *Worker) Start(concurrency int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.isRunning {
		return
	}
	w.isRunning = true
	w.shutdown = make(chan struct{})

	for i := 0; i < concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(i, w.shutdown)
	}
	w.wg.Add(1)
	go w.promoteDelayed(w.shutdown)

	w.logger.Info("started notification workers", zap.Int("concurrency", concurrency))
}

// Stop signals every loop to exit and waits for in-flight jobs.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return
	}
	w.isRunning = false
	close(w.shutdown)
	w.mu.Unlock()

	w.logger.Info("stopping notification workers")
	w.wg.Wait()
}

func (w *Worker) processJobs(workerID int, shutdown <-chan struct{}) {
	defer w.wg.Done()
	log := w.logger.With(zap.Int("worker", workerID))

	for {
		select {
		case <-shutdown:
			log.Debug("worker shutting down")
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), w.pollTimeout+5*time.Second)
		job, err := w.queue.Dequeue(ctx, w.pollTimeout)
		cancel()

		if err != nil {
			log.Warn("error dequeuing job", zap.Error(err))
			sleep(time.Second, shutdown)
			continue
		}
		if job == nil {
			continue
		}

		log.Info("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))

		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		jobErr := w.processJob(jobCtx, job)
		cancel()

		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		if jobErr != nil {
			log.Warn("error processing job", zap.String("job_id", job.ID), zap.Error(jobErr))
			if err := w.queue.FailJob(ctx, job, jobErr); err != nil {
				log.Error("error marking job as failed", zap.String("job_id", job.ID), zap.Error(err))
			}
		} else if err := w.queue.CompleteJob(ctx, job); err != nil {
			log.Error("error marking job as complete", zap.String("job_id", job.ID), zap.Error(err))
		}
		cancel()
	}
}

func (w *Worker) promoteDelayed(shutdown <-chan struct{}) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.delayedEvery)
	defer ticker.Stop()

	for {
		select {
		case <-shutdown:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if _, err := w.queue.ProcessDelayedJobs(ctx); err != nil {
				w.logger.Warn("error promoting delayed jobs", zap.Error(err))
			}
			cancel()
		}
	}
}

func sleep(d time.Duration, shutdown <-chan struct{}) {
	select {
	case <-shutdown:
	case <-time.After(d):
	}
}

func (w *Worker) processJob(ctx context.Context, job *queue.Job) error {
	to := job.String("email")
	if to == "" {
		// nothing to deliver; retrying will not help
		w.logger.Warn("dropping notification without recipient", zap.String("job_id", job.ID))
		return nil
	}

	switch job.Type {
	case queue.JobTypeOrderConfirmation:
		return w.sender.SendOrderConfirmation(ctx, to, email.OrderConfirmation{
			Name:          job.String("name"),
			OrderID:       job.String("orderId"),
			Total:         job.String("total"),
			PaymentMethod: job.String("paymentMethod"),
			PaymentStatus: job.String("paymentStatus"),
		})
	case queue.JobTypePaymentFailed:
		return w.sender.SendPaymentFailed(ctx, to, email.PaymentFailed{
			Name:  job.String("name"),
			Total: job.String("total"),
		})
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}
