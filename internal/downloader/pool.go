package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"wbscraper/pkg/logger"
	"wbscraper/pkg/ratelimit"
)

// ImageJob is one picture to fetch for a seed
type ImageJob struct {
	URL       string
	PictureID string
	SeedID    int64
}

// ImageResult is the outcome of one ImageJob
type ImageResult struct {
	Job      ImageJob
	Skipped  bool
	Error    error
	Duration time.Duration
	Size     int64
}

// ImageFetcher streams an image URL into w
type ImageFetcher interface {
	DownloadImage(ctx context.Context, url string, w io.Writer) (int64, error)
}

// ImageStorage persists images per seed
type ImageStorage interface {
	IsImageSaved(seedID int64, pictureID string) bool
	SaveImage(seedID int64, pictureID string, r io.Reader) error
}

// WorkerPool downloads images concurrently
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan ImageJob
	resultQueue chan ImageResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	client      ImageFetcher
	storage     ImageStorage
	rateLimiter ratelimit.Limiter
	logger      logger.Logger
	stopOnce    sync.Once
}

// NewWorkerPool creates a pool. rateLimiter may be nil.
func NewWorkerPool(
	numWorkers int,
	client ImageFetcher,
	storage ImageStorage,
	rateLimiter ratelimit.Limiter,
	log logger.Logger,
) *WorkerPool {
	if log == nil {
		log = logger.GetLogger()
	}
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan ImageJob, numWorkers*2),
		resultQueue: make(chan ImageResult, numWorkers),
		client:      client,
		storage:     storage,
		rateLimiter: rateLimiter,
		logger:      log.WithField("component", "downloader"),
	}
}

// Start launches the workers. Cancelling ctx abandons queued jobs.
func (wp *WorkerPool) Start(ctx context.Context) {
	wp.ctx, wp.cancel = context.WithCancel(ctx)
	wp.logger.InfoWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the queue, waits for in-flight jobs and closes Results
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		close(wp.jobQueue)
		wp.wg.Wait()
		close(wp.resultQueue)
		wp.cancel()
		wp.logger.Info("Worker pool stopped")
	})
}

// Submit queues a job, blocking while the queue is full
func (wp *WorkerPool) Submit(job ImageJob) error {
	if err := wp.ctx.Err(); err != nil {
		return fmt.Errorf("worker pool is shutting down: %w", err)
	}
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the result channel. It must be drained while jobs are submitted.
func (wp *WorkerPool) Results() <-chan ImageResult {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		if wp.ctx.Err() != nil {
			continue
		}
		result := wp.processJob(job, id)
		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
		}
	}
}

func (wp *WorkerPool) processJob(job ImageJob, workerID int) ImageResult {
	start := time.Now()
	result := ImageResult{Job: job}
	fields := map[string]interface{}{
		"worker_id":  workerID,
		"seed":       job.SeedID,
		"picture_id": job.PictureID,
	}

	if wp.storage.IsImageSaved(job.SeedID, job.PictureID) {
		wp.logger.DebugWithFields("Image already saved", fields)
		result.Skipped = true
		result.Duration = time.Since(start)
		return result
	}

	if wp.rateLimiter != nil {
		if err := wp.rateLimiter.Wait(wp.ctx); err != nil {
			result.Error = err
			result.Duration = time.Since(start)
			return result
		}
	}

	var buf bytes.Buffer
	n, err := wp.client.DownloadImage(wp.ctx, job.URL, &buf)
	if err != nil {
		result.Error = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)
		wp.logger.WithError(err).ErrorWithFields("Image download failed", fields)
		return result
	}
	result.Size = n

	if err := wp.storage.SaveImage(job.SeedID, job.PictureID, &buf); err != nil {
		result.Error = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)
		wp.logger.WithError(err).ErrorWithFields("Image save failed", fields)
		return result
	}

	result.Duration = time.Since(start)
	fields["size"] = n
	wp.logger.DebugWithFields("Image saved", fields)
	return result
}

// QueueSize returns the number of jobs waiting
func (wp *WorkerPool) QueueSize() int {
	return len(wp.jobQueue)
}
