package queue

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldRetry(t *testing.T) {
	rm := NewRetryManager(3, time.Second)

	tests := []struct {
		name     string
		attempts int
		err      error
		want     bool
	}{
		{"transient error below limit", 1, errors.New("connection refused"), true},
		{"transient error at limit", 3, errors.New("connection refused"), false},
		{"not found is permanent", 1, errors.New("event 7 not found: sql: no rows"), false},
		{"invalid input is permanent", 1, errors.New("invalid task type: bogus"), false},
		{"authorization denied is permanent", 1, errors.New("authorization denied"), false},
		{"validation failure is permanent", 1, errors.New("validation failed: capacity"), false},
		{"nil error", 1, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &Task{ID: "t1", Type: TaskTypeSendNotification, Attempts: tt.attempts, MaxRetries: 3}
			got, _ := rm.ShouldRetry(task, tt.err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	rm := NewRetryManager(5, time.Second)

	// first attempt gets the base delay
	assert.Equal(t, time.Second, rm.calculateBackoff(0))

	// later attempts grow but stay within the cap and jitter bounds
	for attempt := 1; attempt <= 10; attempt++ {
		delay := rm.calculateBackoff(attempt)
		assert.GreaterOrEqual(t, delay, time.Second/2, "attempt %d", attempt)
		assert.LessOrEqual(t, delay, 16*time.Second, "attempt %d", attempt)
	}
}

func TestTaskDataAccessors(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	task := &Task{
		ID:   "t1",
		Type: TaskTypeRecordActivity,
		Data: map[string]interface{}{
			"community_id": float64(7), // JSON round-trip turns numbers into float64
			"actor_id":     int64(3),
			"kind":         "event_created",
			"when":         now.Format(time.RFC3339),
		},
	}

	assert.Equal(t, int64(7), task.GetInt64("community_id"))
	assert.Equal(t, int64(3), task.GetInt64("actor_id"))
	assert.Equal(t, "event_created", task.GetString("kind"))
	assert.Equal(t, now, task.GetTime("when"))
	assert.Equal(t, int64(0), task.GetInt64("missing"))
	assert.Equal(t, "", task.GetString("missing"))
}
