package ratemod

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// WarningKind classifies non-fatal warning events.
type WarningKind string

const (
	// WarningRuleRemoved is emitted when an assignment rule is removed
	// so an overridden entity can hold a constant value.
	WarningRuleRemoved WarningKind = "rule_removed"

	// WarningInitialAssignmentRemoved is emitted when an initial
	// assignment is removed for the same reason.
	WarningInitialAssignmentRemoved WarningKind = "initial_assignment_removed"

	// WarningDeprecated is emitted by helpers slated for removal.
	WarningDeprecated WarningKind = "deprecated"

	// WarningInconsistency is emitted for model consistency issues that
	// do not abort the operation reporting them.
	WarningInconsistency WarningKind = "inconsistency"
)

// WarningEvent is a non-fatal diagnostic surfaced on a side channel.
// It never changes the result of the operation that produced it.
type WarningEvent struct {
	ID          string      `json:"id"`
	Kind        WarningKind `json:"kind"`
	ModelName   string      `json:"model_name,omitempty"`
	ConditionID string      `json:"condition_id,omitempty"`
	Target      string      `json:"target,omitempty"`
	Message     string      `json:"message"`
	Timestamp   int64       `json:"timestamp"`
}

// JSON returns the warning event as JSON bytes
func (we WarningEvent) JSON() ([]byte, error) {
	return json.Marshal(we)
}

// NewWarningEvent creates a warning event with a fresh id and the
// current timestamp.
func NewWarningEvent(kind WarningKind, target, message string) WarningEvent {
	return WarningEvent{
		ID:        uuid.NewString(),
		Kind:      kind,
		Target:    target,
		Message:   message,
		Timestamp: time.Now().Unix(),
	}
}

// WarningSink receives warning events. A nil sink discards them.
type WarningSink func(WarningEvent)

func emitWarning(sink WarningSink, event WarningEvent) {
	if sink != nil {
		sink(event)
	}
}

// Notifier is the interface that all warning channels must implement
type Notifier interface {
	// ID returns a unique identifier for this notifier
	ID() string

	// Type returns the type of notifier (e.g., "webhook", "websocket")
	Type() string

	// Notify delivers a warning event. Returns an error if delivery fails.
	// The context can be used for cancellation and timeout.
	Notify(ctx context.Context, event WarningEvent) error

	// Close closes the notifier and releases any resources
	Close() error
}

// warningJob represents a job to be processed by the warning queue
type warningJob struct {
	Event WarningEvent
}

// WarningManager fans warning events out to all registered notifiers
// through a buffered queue, so emitting a warning never blocks model
// operations on slow delivery channels.
type WarningManager struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
	jobs      chan warningJob
	closed    bool
	wg        sync.WaitGroup
	logger    Logger
}

// NewWarningManager creates a warning manager with a no-op logger.
func NewWarningManager() *WarningManager {
	return NewWarningManagerWithLogger(NewNoOpLogger())
}

// NewWarningManagerWithLogger creates a warning manager using the given logger.
func NewWarningManagerWithLogger(logger Logger) *WarningManager {
	mgr := &WarningManager{
		notifiers: make(map[string]Notifier),
		jobs:      make(chan warningJob, 1024),
		logger:    logger,
	}
	mgr.startWorkers(1)
	return mgr
}

// RegisterNotifier registers a notifier with the manager
func (wm *WarningManager) RegisterNotifier(notifier Notifier) error {
	if notifier == nil {
		return fmt.Errorf("notifier cannot be nil")
	}

	id := notifier.ID()
	if id == "" {
		return fmt.Errorf("notifier ID cannot be empty")
	}

	wm.mu.Lock()
	defer wm.mu.Unlock()

	if _, exists := wm.notifiers[id]; exists {
		return fmt.Errorf("notifier with ID %s already exists", id)
	}

	wm.notifiers[id] = notifier
	return nil
}

// UnregisterNotifier removes a notifier from the manager
func (wm *WarningManager) UnregisterNotifier(id string) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	notifier, exists := wm.notifiers[id]
	if !exists {
		return fmt.Errorf("notifier with ID %s does not exist", id)
	}

	delete(wm.notifiers, id)
	return notifier.Close()
}

// Sink returns a WarningSink that enqueues events on this manager.
func (wm *WarningManager) Sink() WarningSink {
	return func(event WarningEvent) {
		wm.Emit(event)
	}
}

// Emit enqueues a warning event for asynchronous delivery to all
// registered notifiers. Events are dropped when the manager is closed
// or the queue is full.
func (wm *WarningManager) Emit(event WarningEvent) {
	wm.mu.RLock()
	closed := wm.closed
	wm.mu.RUnlock()
	if closed {
		return
	}

	select {
	case wm.jobs <- warningJob{Event: event}:
	default:
		wm.logger.Warnf("warning queue full, dropping event: kind=%s target=%s", event.Kind, event.Target)
	}
}

func (wm *WarningManager) startWorkers(n int) {
	for i := 0; i < n; i++ {
		wm.wg.Add(1)
		go func() {
			defer wm.wg.Done()
			for job := range wm.jobs {
				wm.deliver(job.Event)
			}
		}()
	}
}

func (wm *WarningManager) deliver(event WarningEvent) {
	wm.mu.RLock()
	notifiers := make([]Notifier, 0, len(wm.notifiers))
	for _, n := range wm.notifiers {
		notifiers = append(notifiers, n)
	}
	wm.mu.RUnlock()

	for _, notifier := range notifiers {
		wm.deliverTo(notifier, event)
	}
}

// deliverTo delivers one event to one notifier with a basic
// retry/backoff policy.
func (wm *WarningManager) deliverTo(notifier Notifier, event WarningEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	const maxRetries = 3
	backoff := 100 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := notifier.Notify(ctx, event)
		if err == nil {
			return
		}

		wm.logger.Warnf("warning delivery failed: notifier=%s attempt=%d error=%v", notifier.ID(), attempt+1, err)

		if attempt == maxRetries {
			wm.logger.Errorf("warning delivery failed after %d attempts: notifier=%s", maxRetries+1, notifier.ID())
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
			backoff *= 2
		}
	}
}

// Close shuts down the workers and closes all registered notifiers.
func (wm *WarningManager) Close() error {
	wm.mu.Lock()
	if wm.closed {
		wm.mu.Unlock()
		return nil
	}
	wm.closed = true
	close(wm.jobs)
	wm.mu.Unlock()

	wm.wg.Wait()

	wm.mu.Lock()
	defer wm.mu.Unlock()
	var errs []error
	for id, notifier := range wm.notifiers {
		if err := notifier.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing notifier %s: %w", id, err))
		}
	}
	wm.notifiers = make(map[string]Notifier)

	if len(errs) > 0 {
		return fmt.Errorf("errors closing notifiers: %v", errs)
	}
	return nil
}
