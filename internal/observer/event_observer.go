package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ModerationEvent represents one step of a content item's moderation
type ModerationEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	ContentRef     string                 `json:"content_ref"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of moderation event
type EventType string

const (
	// ModerationStarted when processing of a content item begins
	ModerationStarted EventType = "moderation_started"
	// ModerationCompleted when processing finishes successfully
	ModerationCompleted EventType = "moderation_completed"
	// ModerationFailed when processing fails
	ModerationFailed EventType = "moderation_failed"
	// ContentQuarantined when forbidden content is moved to quarantine
	ContentQuarantined EventType = "content_quarantined"
	// ContentVerified when compliant content is tagged as verified
	ContentVerified EventType = "content_verified"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event ModerationEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event ModerationEvent)
}

// LoggingObserver logs moderation events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles moderation events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event ModerationEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"content_ref":     event.ContentRef,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}

	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}

	for k, v := range event.Metadata {
		fields[k] = v
	}

	switch event.EventType {
	case ModerationStarted:
		o.logger.WithFields(fields).Info("Content moderation started")
	case ModerationCompleted:
		o.logger.WithFields(fields).Info("Content moderation completed")
	case ModerationFailed:
		o.logger.WithFields(fields).Error("Content moderation failed")
	case ContentQuarantined:
		o.logger.WithFields(fields).Warn("Content quarantined")
	case ContentVerified:
		o.logger.WithFields(fields).Info("Content verified")
	default:
		o.logger.WithFields(fields).Info("Moderation event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects in-process counters from moderation events
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalItems          int64
	completedItems      int64
	failedItems         int64
	quarantinedItems    int64
	verifiedItems       int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles moderation events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event ModerationEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case ModerationStarted:
		o.totalItems++
	case ModerationCompleted:
		o.completedItems++
		o.totalProcessingTime += event.ProcessingTime
	case ModerationFailed:
		o.failedItems++
	case ContentQuarantined:
		o.quarantinedItems++
	case ContentVerified:
		o.verifiedItems++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current counters
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.completedItems > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.completedItems)
	}

	return map[string]interface{}{
		"total_items":           o.totalItems,
		"completed_items":       o.completedItems,
		"failed_items":          o.failedItems,
		"quarantined_items":     o.quarantinedItems,
		"verified_items":        o.verifiedItems,
		"avg_processing_time":   avgProcessingTime.String(),
		"total_processing_time": o.totalProcessingTime.String(),
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() Subject {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event ModerationEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		func(obs Observer) {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}
