// Package progress tracks the phases of a delegated clone ("Receiving
// objects", "Resolving deltas") and renders them for a terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Tracker interface defines methods for tracking operation progress
type Tracker interface {
	Start(operation string) *Operation
	Update(current, total int64)
	Complete()
	Error(err error)
}

// Operation represents a tracked operation
type Operation struct {
	Name         string
	StartTime    time.Time
	Status       string
	LastUpdate   time.Time
	LastCurrent  int64
	LastTotal    int64
	ProgressRate float64 // objects per second
	RateHistory  []float64
	EstimatedETA time.Time
}

const (
	rateHistorySize = 10 // Keep last 10 rate measurements for averaging

	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

func newOperation(name string) *Operation {
	now := time.Now()
	return &Operation{
		Name:        name,
		StartTime:   now,
		LastUpdate:  now,
		Status:      StatusInProgress,
		RateHistory: make([]float64, 0, rateHistorySize),
	}
}

// record folds a new (current, total) sample into the moving rate average and
// the ETA estimate.
func (op *Operation) record(current, total int64, now time.Time) {
	if op.LastCurrent > 0 {
		timeDiff := now.Sub(op.LastUpdate).Seconds()
		if timeDiff > 0 {
			currentRate := float64(current-op.LastCurrent) / timeDiff

			if len(op.RateHistory) >= rateHistorySize {
				op.RateHistory = op.RateHistory[1:]
			}
			op.RateHistory = append(op.RateHistory, currentRate)

			var totalRate float64
			for _, rate := range op.RateHistory {
				totalRate += rate
			}
			op.ProgressRate = totalRate / float64(len(op.RateHistory))

			if op.ProgressRate > 0 {
				remainingSeconds := float64(total-current) / op.ProgressRate
				op.EstimatedETA = now.Add(time.Duration(remainingSeconds * float64(time.Second)))
			}
		}
	}

	op.LastUpdate = now
	op.LastCurrent = current
	op.LastTotal = total
}

// DefaultTracker records progress without producing any output
type DefaultTracker struct {
	CurrentOperation *Operation
}

// Start begins tracking a new operation
func (t *DefaultTracker) Start(operation string) *Operation {
	t.CurrentOperation = newOperation(operation)
	return t.CurrentOperation
}

// Complete marks the operation as completed
func (t *DefaultTracker) Complete() {
	if t.CurrentOperation != nil {
		t.CurrentOperation.Status = StatusCompleted
	}
}

// Error marks the operation as failed with an error
func (t *DefaultTracker) Error(err error) {
	if t.CurrentOperation != nil {
		t.CurrentOperation.Status = StatusFailed
	}
}

// Update updates the progress of the current operation
func (t *DefaultTracker) Update(current, total int64) {
	if t.CurrentOperation == nil {
		return
	}
	t.CurrentOperation.record(current, total, time.Now())
}

// ConsoleTracker implements Tracker for console output
type ConsoleTracker struct {
	w                io.Writer
	currentOperation *Operation
}

// NewConsoleTracker creates a new console-based progress tracker writing to
// w, or to stderr when w is nil.
func NewConsoleTracker(w io.Writer) *ConsoleTracker {
	if w == nil {
		w = os.Stderr
	}
	return &ConsoleTracker{w: w}
}

// Start begins tracking a new operation
func (t *ConsoleTracker) Start(operation string) *Operation {
	t.currentOperation = newOperation(operation)
	fmt.Fprintf(t.w, "   %s...\n", operation)
	return t.currentOperation
}

// Update updates the progress of the current operation
func (t *ConsoleTracker) Update(current, total int64) {
	if t.currentOperation == nil || total <= 0 {
		return
	}

	now := time.Now()
	t.currentOperation.record(current, total, now)

	etaStr := "calculating..."
	if !t.currentOperation.EstimatedETA.IsZero() {
		remaining := t.currentOperation.EstimatedETA.Sub(now).Round(time.Second)
		if remaining > 0 {
			etaStr = remaining.String()
		} else {
			etaStr = "almost done"
		}
	}

	fmt.Fprintf(t.w, "\r   %s: %.0f%% (%d/%d, %.1f objects/sec, ETA: %s)",
		t.currentOperation.Name,
		float64(current)/float64(total)*100,
		current,
		total,
		t.currentOperation.ProgressRate,
		etaStr)
}

// Complete marks the current operation as completed
func (t *ConsoleTracker) Complete() {
	if t.currentOperation == nil {
		return
	}
	duration := time.Since(t.currentOperation.StartTime).Round(time.Millisecond)
	fmt.Fprintf(t.w, "\n   %s done (took %v)\n", t.currentOperation.Name, duration)
	t.currentOperation = nil
}

// Error marks the current operation as failed
func (t *ConsoleTracker) Error(err error) {
	if t.currentOperation == nil {
		return
	}
	fmt.Fprintf(t.w, "\n   %s failed\n", t.currentOperation.Name)
	t.currentOperation = nil
}
