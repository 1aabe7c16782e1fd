package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// AnalysisEvent represents an analysis lifecycle event
type AnalysisEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	RequestID      string                 `json:"request_id,omitempty"`
	Provider       string                 `json:"provider"`
	Model          string                 `json:"model"`
	ImageBytes     int                    `json:"image_bytes"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of analysis event
type EventType string

const (
	// AnalysisStarted when a frame is handed to the gateway
	AnalysisStarted EventType = "analysis_started"
	// AnalysisCompleted when a normalized result was produced, placeholder included
	AnalysisCompleted EventType = "analysis_completed"
	// AnalysisFailed when no result could be produced
	AnalysisFailed EventType = "analysis_failed"
	// ParseFallback when the model reply was not JSON and the placeholder was used
	ParseFallback EventType = "parse_fallback"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event AnalysisEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event AnalysisEvent)
}

// LoggingObserver logs analysis events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles analysis events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	fields := logrus.Fields{
		"event_type":         event.EventType,
		"provider":           event.Provider,
		"model":              event.Model,
		"image_bytes":        event.ImageBytes,
		"processing_time_ms": event.ProcessingTime.Milliseconds(),
		"success":            event.Success,
	}
	if event.RequestID != "" {
		fields["request_id"] = event.RequestID
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case AnalysisStarted:
		entry.Debug("Product analysis started")
	case AnalysisCompleted:
		entry.Info("Product analysis completed")
	case AnalysisFailed:
		entry.Error("Product analysis failed")
	case ParseFallback:
		entry.Warn("Model reply was not valid JSON, using placeholder result")
	default:
		entry.Info("Analysis event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// Stats is a snapshot of MetricsObserver counters.
type Stats struct {
	TotalAnalyses       int64 `json:"total_analyses"`
	SuccessfulAnalyses  int64 `json:"successful_analyses"`
	FailedAnalyses      int64 `json:"failed_analyses"`
	ParseFallbacks      int64 `json:"parse_fallbacks"`
	TotalProcessingTime int64 `json:"total_processing_time_ms"`
	AvgProcessingTime   int64 `json:"avg_processing_time_ms"`
	UpstreamErrors      int64 `json:"upstream_errors"`
}

// MetricsObserver collects counters from analysis events
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalAnalyses       int64
	successfulAnalyses  int64
	failedAnalyses      int64
	parseFallbacks      int64
	upstreamErrors      int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles analysis events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case AnalysisStarted:
		o.totalAnalyses++
	case AnalysisCompleted:
		o.successfulAnalyses++
		o.totalProcessingTime += event.ProcessingTime
	case AnalysisFailed:
		o.failedAnalyses++
		if t, ok := event.Metadata["error_type"].(string); ok && t == "upstream" {
			o.upstreamErrors++
		}
	case ParseFallback:
		o.parseFallbacks++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// Stats returns current counters
func (o *MetricsObserver) Stats() Stats {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var avg time.Duration
	if o.successfulAnalyses > 0 {
		avg = o.totalProcessingTime / time.Duration(o.successfulAnalyses)
	}

	return Stats{
		TotalAnalyses:       o.totalAnalyses,
		SuccessfulAnalyses:  o.successfulAnalyses,
		FailedAnalyses:      o.failedAnalyses,
		ParseFallbacks:      o.parseFallbacks,
		TotalProcessingTime: o.totalProcessingTime.Milliseconds(),
		AvgProcessingTime:   avg.Milliseconds(),
		UpstreamErrors:      o.upstreamErrors,
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
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

// NotifyObservers delivers the event to every observer concurrently and returns
// once all of them have handled it.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event AnalysisEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	var wg sync.WaitGroup
	for _, observer := range observers {
		wg.Add(1)
		go func(obs Observer) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					// Log panic but don't crash the application
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
	wg.Wait()
}
