// FILE: strategic-logger/internal/delivery/deliverer.go
// Batch and retry delivery for network-backed strategies. Records
// accumulate in a batch owned by exactly one strategy instance; the batch
// is flushed when it reaches the size threshold or when the periodic
// timer fires, whichever comes first. Both paths swap the batch out under
// the same lock, so a record appended while a send is in flight lands in
// the fresh batch, never lost and never duplicated.
package delivery

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Hypn-Tech/strategic-logger/internal/pool"
	"github.com/Hypn-Tech/strategic-logger/internal/version"

	"github.com/lixenwraith/log"
	"github.com/valyala/fasthttp"
)

const (
	DefaultBatchSize     = 100
	DefaultFlushInterval = 5 * time.Second
	DefaultMaxRetries    = 3
	DefaultRetryDelay    = time.Second
	DefaultTimeout       = 30 * time.Second
)

// Config controls one deliverer instance.
type Config struct {
	// URL is the endpoint batches are POSTed to.
	URL string

	// BatchSize triggers an immediate flush when reached.
	BatchSize int

	// FlushInterval is the periodic flush cadence for partial batches.
	FlushInterval time.Duration

	// MaxRetries is the total number of delivery attempts per batch.
	MaxRetries int

	// RetryDelay is the base delay; the wait before attempt N is
	// RetryDelay times the number of attempts already made (linear).
	RetryDelay time.Duration

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// Compress gzips the JSON body and sets Content-Encoding: gzip.
	Compress bool

	// Headers are additional transport headers per request.
	Headers map[string]string
}

func (c *Config) applyDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// Deliverer accumulates formatted records and ships them in batches with
// bounded retry. Delivery is best-effort: exhausting retries drops the
// batch and self-logs; nothing propagates to the log caller.
type Deliverer struct {
	config Config
	client *fasthttp.Client
	pool   *pool.Pool
	logger *log.Logger

	batchMu sync.Mutex
	batch   []map[string]any

	inflight sync.WaitGroup
	done     chan struct{}
	wg       sync.WaitGroup
	disposed atomic.Bool

	// Statistics
	totalRecords  atomic.Uint64
	totalBatches  atomic.Uint64
	failedBatches atomic.Uint64
	totalRetries  atomic.Uint64
	lastBatchSent atomic.Value // time.Time
}

// New creates a deliverer and starts its flush timer. The worker pool is
// used to encode and compress batches off the dispatch path, with the
// mandatory in-process fallback.
func New(cfg Config, workerPool *pool.Pool, logger *log.Logger) (*Deliverer, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("delivery: url cannot be empty")
	}
	if workerPool == nil {
		return nil, fmt.Errorf("delivery: worker pool cannot be nil")
	}
	cfg.applyDefaults()

	d := &Deliverer{
		config: cfg,
		pool:   workerPool,
		logger: logger,
		batch:  make([]map[string]any, 0, cfg.BatchSize),
		done:   make(chan struct{}),
		client: &fasthttp.Client{
			MaxConnsPerHost:     10,
			MaxIdleConnDuration: 10 * time.Second,
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
		},
	}
	d.lastBatchSent.Store(time.Time{})

	d.wg.Add(1)
	go d.flushTimer()

	logger.Debug("msg", "Deliverer started",
		"component", "delivery",
		"url", cfg.URL,
		"batch_size", cfg.BatchSize,
		"flush_interval", cfg.FlushInterval,
		"compress", cfg.Compress)
	return d, nil
}

// Append adds one formatted record. Reaching the size threshold flushes
// immediately in the background; otherwise the timer will pick it up.
func (d *Deliverer) Append(record map[string]any) {
	if d.disposed.Load() {
		return
	}
	d.totalRecords.Add(1)

	d.batchMu.Lock()
	d.batch = append(d.batch, record)
	if len(d.batch) < d.config.BatchSize {
		d.batchMu.Unlock()
		return
	}
	batch := d.swapLocked()
	// Registered before the lock is released so a concurrent Flush
	// cannot miss this send.
	d.inflight.Add(1)
	d.batchMu.Unlock()

	go func() {
		defer d.inflight.Done()
		d.sendBatch(batch)
	}()
}

// Flush forces delivery of the pending partial batch and waits for every
// in-flight send to complete before returning.
func (d *Deliverer) Flush() {
	d.batchMu.Lock()
	batch := d.swapLocked()
	d.batchMu.Unlock()

	if len(batch) > 0 {
		d.inflight.Add(1)
		func() {
			defer d.inflight.Done()
			d.sendBatch(batch)
		}()
	}
	d.inflight.Wait()
}

// Dispose stops the timer, force-flushes the pending batch, and releases
// the network client. Idempotent.
func (d *Deliverer) Dispose() {
	if !d.disposed.CompareAndSwap(false, true) {
		return
	}
	close(d.done)
	d.wg.Wait()
	d.Flush()
	d.client.CloseIdleConnections()

	d.logger.Debug("msg", "Deliverer disposed",
		"component", "delivery",
		"url", d.config.URL,
		"total_records", d.totalRecords.Load(),
		"total_batches", d.totalBatches.Load(),
		"failed_batches", d.failedBatches.Load())
}

// Pending returns the number of records awaiting the next flush.
func (d *Deliverer) Pending() int {
	d.batchMu.Lock()
	defer d.batchMu.Unlock()
	return len(d.batch)
}

// GetStats returns delivery statistics.
func (d *Deliverer) GetStats() map[string]any {
	lastSent, _ := d.lastBatchSent.Load().(time.Time)
	return map[string]any{
		"url":             d.config.URL,
		"batch_size":      d.config.BatchSize,
		"pending_records": d.Pending(),
		"total_records":   d.totalRecords.Load(),
		"total_batches":   d.totalBatches.Load(),
		"failed_batches":  d.failedBatches.Load(),
		"total_retries":   d.totalRetries.Load(),
		"last_batch_sent": lastSent,
	}
}

// Swaps the current batch for a fresh one. Caller holds batchMu.
func (d *Deliverer) swapLocked() []map[string]any {
	batch := d.batch
	d.batch = make([]map[string]any, 0, d.config.BatchSize)
	return batch
}

// flushTimer periodically flushes partial batches.
func (d *Deliverer) flushTimer() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.batchMu.Lock()
			if len(d.batch) == 0 {
				d.batchMu.Unlock()
				continue
			}
			batch := d.swapLocked()
			d.inflight.Add(1)
			d.batchMu.Unlock()

			go func() {
				defer d.inflight.Done()
				d.sendBatch(batch)
			}()

		case <-d.done:
			return
		}
	}
}

// sendBatch encodes one batch and posts it with bounded linear retry.
func (d *Deliverer) sendBatch(batch []map[string]any) {
	d.totalBatches.Add(1)
	d.lastBatchSent.Store(time.Now())

	body, err := d.encode(batch)
	if err != nil {
		d.logger.Error("msg", "Failed to encode batch",
			"component", "delivery",
			"url", d.config.URL,
			"batch_size", len(batch),
			"error", err)
		d.failedBatches.Add(1)
		return
	}

	var lastErr error
	for attempt := 1; attempt <= d.config.MaxRetries; attempt++ {
		if attempt > 1 {
			d.totalRetries.Add(1)
			time.Sleep(d.config.RetryDelay * time.Duration(attempt-1))
		}

		statusCode, responseBody, err := d.post(body)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			d.logger.Warn("msg", "Batch delivery failed",
				"component", "delivery",
				"url", d.config.URL,
				"attempt", attempt,
				"max_retries", d.config.MaxRetries,
				"error", err)
			continue
		}

		if statusCode >= 200 && statusCode < 300 {
			d.logger.Debug("msg", "Batch delivered",
				"component", "delivery",
				"url", d.config.URL,
				"batch_size", len(batch),
				"status_code", statusCode,
				"attempt", attempt)
			return
		}

		lastErr = fmt.Errorf("server returned status %d: %s", statusCode, responseBody)

		// Client errors are terminal: the server rejected the payload
		// and retrying the same bytes cannot succeed.
		if statusCode >= 400 && statusCode < 500 {
			d.logger.Error("msg", "Batch rejected by server",
				"component", "delivery",
				"url", d.config.URL,
				"status_code", statusCode,
				"response", string(responseBody),
				"batch_size", len(batch))
			d.failedBatches.Add(1)
			return
		}

		d.logger.Warn("msg", "Server returned error status",
			"component", "delivery",
			"url", d.config.URL,
			"attempt", attempt,
			"status_code", statusCode)
	}

	d.logger.Error("msg", "Dropping batch after exhausting retries",
		"component", "delivery",
		"url", d.config.URL,
		"batch_size", len(batch),
		"attempts", d.config.MaxRetries,
		"last_error", lastErr)
	d.failedBatches.Add(1)
}

// encode turns the batch into wire bytes, preferring the worker pool.
func (d *Deliverer) encode(batch []map[string]any) ([]byte, error) {
	request := pool.EncodeBatchRequest{Records: batch, Compress: d.config.Compress}

	result, err := d.pool.Execute(context.Background(), pool.KindEncodeBatch, request)
	if err != nil {
		return nil, err
	}
	body, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("delivery: unexpected encode result %T", result)
	}
	return body, nil
}

// post performs one HTTP attempt and returns the status code and body.
func (d *Deliverer) post(body []byte) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(d.config.URL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("User-Agent", fmt.Sprintf("strategic-logger/%s", version.Short()))
	if d.config.Compress {
		req.Header.Set(fasthttp.HeaderContentEncoding, "gzip")
	}
	for k, v := range d.config.Headers {
		req.Header.Set(k, v)
	}
	req.SetBody(body)

	if err := d.client.DoTimeout(req, resp, d.config.Timeout); err != nil {
		return 0, nil, err
	}

	statusCode := resp.StatusCode()
	var responseBody []byte
	if len(resp.Body()) > 0 {
		responseBody = make([]byte, len(resp.Body()))
		copy(responseBody, resp.Body())
	}
	return statusCode, responseBody, nil
}
