package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	defaultMaxRetries   = 3
	defaultBaseDelay    = 5 * time.Second
	defaultQueueTimeout = 5 * time.Second
	defaultDLQThreshold = 1000
)

// Queue интерфейс очереди
type Queue interface {
	Publish(ctx context.Context, task *Task) error
	Subscribe(ctx context.Context, handler func(*Task) error) error
	Close() error
}

// RedisQueue implements Queue interface using Redis
type RedisQueue struct {
	client          *redis.Client
	mainQueue       string
	delayedQueue    string
	processingQueue string
	dlq             string
	retryManager    *RetryManager
	dlqHandler      DLQHandler
	config          *RedisQueueConfig
	mu              sync.RWMutex
	stopChan        chan struct{}
	wg              sync.WaitGroup
}

// RedisQueueConfig contains configuration for RedisQueue
type RedisQueueConfig struct {
	// Redis connection
	Addr     string
	Password string
	DB       int

	// Queue names
	MainQueue       string
	DelayedQueue    string
	ProcessingQueue string
	DLQ             string

	// Behavior
	MaxRetries   int
	BaseDelay    time.Duration
	QueueTimeout time.Duration
	DLQThreshold int
	EnableDLQ    bool
}

// DefaultRedisQueueConfig returns default configuration
func DefaultRedisQueueConfig() *RedisQueueConfig {
	return &RedisQueueConfig{
		Addr:            "localhost:6379",
		Password:        "",
		DB:              0,
		MainQueue:       "gatherhub:tasks",
		DelayedQueue:    "gatherhub:tasks:delayed",
		ProcessingQueue: "gatherhub:tasks:processing",
		DLQ:             "gatherhub:dlq",
		MaxRetries:      defaultMaxRetries,
		BaseDelay:       defaultBaseDelay,
		QueueTimeout:    defaultQueueTimeout,
		DLQThreshold:    defaultDLQThreshold,
		EnableDLQ:       true,
	}
}

// NewRedisQueue creates a new RedisQueue instance
func NewRedisQueue(cfg *RedisQueueConfig, retryManager *RetryManager, dlqHandler DLQHandler) (*RedisQueue, error) {
	if cfg == nil {
		cfg = DefaultRedisQueueConfig()
	}
	if cfg.MainQueue == "" {
		defaults := DefaultRedisQueueConfig()
		cfg.MainQueue = defaults.MainQueue
		cfg.DelayedQueue = defaults.DelayedQueue
		cfg.ProcessingQueue = defaults.ProcessingQueue
		cfg.DLQ = defaults.DLQ
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = defaultBaseDelay
	}
	if cfg.QueueTimeout == 0 {
		cfg.QueueTimeout = defaultQueueTimeout
	}

	if retryManager == nil {
		retryManager = NewRetryManager(cfg.MaxRetries, cfg.BaseDelay)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	if dlqHandler == nil && cfg.EnableDLQ {
		dlqHandler = NewDefaultDLQHandler(client, cfg.DLQ)
	}

	queue := &RedisQueue{
		client:          client,
		mainQueue:       cfg.MainQueue,
		delayedQueue:    cfg.DelayedQueue,
		processingQueue: cfg.ProcessingQueue,
		dlq:             cfg.DLQ,
		retryManager:    retryManager,
		dlqHandler:      dlqHandler,
		config:          cfg,
		stopChan:        make(chan struct{}),
	}

	log.Printf("RedisQueue initialized: main=%s, delayed=%s, dlq=%s",
		cfg.MainQueue, cfg.DelayedQueue, cfg.DLQ)

	return queue, nil
}

// Publish sends a task to the queue
func (r *RedisQueue) Publish(ctx context.Context, task *Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}

	// Validate and set default values
	if err := r.prepareTask(task); err != nil {
		return fmt.Errorf("invalid task: %v", err)
	}

	taskData, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %v", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Use Redis Sorted Set for delayed tasks
	if !task.ExecuteAt.IsZero() && task.ExecuteAt.After(time.Now()) {
		score := float64(task.ExecuteAt.UnixNano()) / 1e9
		_, err = r.client.ZAdd(ctx, r.delayedQueue, &redis.Z{
			Score:  score,
			Member: taskData,
		}).Result()
		if err != nil {
			return fmt.Errorf("failed to publish delayed task: %v", err)
		}

		log.Printf("Task %s scheduled for execution at %s", task.ID, task.ExecuteAt.Format(time.RFC3339))
	} else {
		// Use Redis List for immediate tasks
		_, err = r.client.LPush(ctx, r.mainQueue, taskData).Result()
		if err != nil {
			return fmt.Errorf("failed to publish immediate task: %v", err)
		}

		log.Printf("Task %s published to main queue", task.ID)
	}

	return nil
}

// Subscribe starts consuming tasks from the queue
func (r *RedisQueue) Subscribe(ctx context.Context, handler func(*Task) error) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	r.wg.Add(2)
	go r.processDelayedTasks(ctx)
	go r.processMainQueue(ctx, handler)

	log.Println("RedisQueue subscriber started")
	return nil
}

// processMainQueue processes tasks from the main queue
func (r *RedisQueue) processMainQueue(ctx context.Context, handler func(*Task) error) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			log.Println("Main queue processor stopped by context")
			return
		case <-r.stopChan:
			log.Println("Main queue processor stopped")
			return
		default:
			if err := r.processNext(ctx, handler); err != nil {
				log.Printf("Error processing task: %v", err)
				time.Sleep(time.Second) // Backoff on error
			}
		}
	}
}

// processNext moves one task to the processing queue and executes it
func (r *RedisQueue) processNext(ctx context.Context, handler func(*Task) error) error {
	taskData, err := r.client.BRPopLPush(ctx, r.mainQueue, r.processingQueue, r.config.QueueTimeout).Result()
	if err == redis.Nil {
		return nil // Timeout, no tasks
	}
	if err != nil {
		return fmt.Errorf("failed to move task to processing queue: %v", err)
	}

	var task Task
	if err := json.Unmarshal([]byte(taskData), &task); err != nil {
		// Move invalid task to DLQ
		log.Printf("Failed to unmarshal task: %v", err)
		r.moveToDLQ(taskData, fmt.Errorf("invalid task format: %v", err))
		r.client.LRem(ctx, r.processingQueue, 1, taskData)
		return nil
	}

	// Execute task with retry logic
	if err := r.executeTaskWithRetry(ctx, &task, handler); err != nil {
		log.Printf("Task %s failed after %d attempts: %v", task.ID, task.Attempts, err)
		if r.dlqHandler != nil {
			r.dlqHandler.HandleFailedTask(&task, err)
		}
	} else {
		log.Printf("Task %s completed successfully", task.ID)
	}

	// Remove from processing queue regardless of outcome
	if err := r.client.LRem(ctx, r.processingQueue, 1, taskData).Err(); err != nil {
		log.Printf("Failed to remove task from processing queue: %v", err)
	}

	return nil
}

// processDelayedTasks moves ready delayed tasks to main queue
func (r *RedisQueue) processDelayedTasks(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Delayed tasks processor stopped by context")
			return
		case <-r.stopChan:
			log.Println("Delayed tasks processor stopped")
			return
		case <-ticker.C:
			if err := r.moveReadyDelayedTasks(ctx); err != nil {
				log.Printf("Failed to process delayed tasks: %v", err)
			}
		}
	}
}

// moveReadyDelayedTasks moves ready delayed tasks to main queue
func (r *RedisQueue) moveReadyDelayedTasks(ctx context.Context) error {
	now := float64(time.Now().UnixNano()) / 1e9

	// Get tasks that are ready to execute
	tasks, err := r.client.ZRangeByScore(ctx, r.delayedQueue, &redis.ZRangeBy{
		Min: "0",
		Max: fmt.Sprintf("%f", now),
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to get delayed tasks: %v", err)
	}

	if len(tasks) == 0 {
		return nil
	}

	// Move to main queue in batch
	pipe := r.client.Pipeline()
	for _, taskData := range tasks {
		pipe.LPush(ctx, r.mainQueue, taskData)
	}
	pipe.ZRemRangeByScore(ctx, r.delayedQueue, "0", fmt.Sprintf("%f", now))

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to move delayed tasks: %v", err)
	}

	log.Printf("Moved %d delayed tasks to main queue", len(tasks))
	return nil
}

// executeTaskWithRetry executes a task with retry logic
func (r *RedisQueue) executeTaskWithRetry(ctx context.Context, task *Task, handler func(*Task) error) error {
	for {
		task.Attempts++

		err := handler(task)
		if err == nil {
			return nil // Success
		}

		// Check if we should retry
		shouldRetry, delay := r.retryManager.ShouldRetry(task, err)
		if !shouldRetry {
			return err // Final failure
		}

		log.Printf("Task %s failed (attempt %d/%d), retrying in %v: %v",
			task.ID, task.Attempts, task.MaxRetries, delay, err)

		// Wait before retry with jitter
		jitteredDelay := delay + time.Duration(rand.Int63n(int64(delay/time.Millisecond)))*time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jitteredDelay):
			// Continue to next attempt
		}
	}
}

// moveToDLQ moves a corrupted task payload to Dead Letter Queue
func (r *RedisQueue) moveToDLQ(taskData string, err error) {
	if !r.config.EnableDLQ || r.dlqHandler == nil {
		return
	}

	failedTask := &Task{
		ID:        fmt.Sprintf("corrupted_%d", time.Now().UnixNano()),
		Type:      "corrupted",
		Data:      map[string]interface{}{"raw_data": taskData},
		CreatedAt: time.Now(),
	}
	r.dlqHandler.HandleFailedTask(failedTask, err)
}

// prepareTask validates task structure and sets defaults
func (r *RedisQueue) prepareTask(task *Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Type == "" {
		return fmt.Errorf("task type is required")
	}
	if task.Data == nil {
		task.Data = make(map[string]interface{})
	}
	if task.MaxRetries == 0 {
		task.MaxRetries = r.config.MaxRetries
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	if task.ExecuteAt.IsZero() {
		task.ExecuteAt = time.Now()
	}

	return nil
}

// QueueStats contains statistics about queue state
type QueueStats struct {
	MainQueue       int64     `json:"main_queue"`
	DelayedQueue    int64     `json:"delayed_queue"`
	ProcessingQueue int64     `json:"processing_queue"`
	DLQ             int64     `json:"dlq"`
	Timestamp       time.Time `json:"timestamp"`
}

// GetQueueStats returns current queue statistics
func (r *RedisQueue) GetQueueStats(ctx context.Context) (*QueueStats, error) {
	pipe := r.client.Pipeline()

	mainLen := pipe.LLen(ctx, r.mainQueue)
	delayedLen := pipe.ZCard(ctx, r.delayedQueue)
	processingLen := pipe.LLen(ctx, r.processingQueue)
	dlqLen := pipe.ZCard(ctx, r.dlq)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get queue stats: %v", err)
	}

	return &QueueStats{
		MainQueue:       mainLen.Val(),
		DelayedQueue:    delayedLen.Val(),
		ProcessingQueue: processingLen.Val(),
		DLQ:             dlqLen.Val(),
		Timestamp:       time.Now(),
	}, nil
}

// Close gracefully shuts down the queue
func (r *RedisQueue) Close() error {
	close(r.stopChan)
	r.wg.Wait()

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %v", err)
	}

	log.Println("RedisQueue closed successfully")
	return nil
}

// HealthCheck performs a health check on the queue
func (r *RedisQueue) HealthCheck(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %v", err)
	}

	return nil
}
