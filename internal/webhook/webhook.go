// Package webhook consumes update-bus events and POSTs them to a
// configured HTTP endpoint, retrying transient failures with randomized
// backoff.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yjcyxky/factotum/internal/bus"
)

// Error reports a delivery problem. It never aborts the job: the
// dispatcher only accumulates it into the terminal mismatch warning.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }

// EventType is the wire discriminator carried in the payload envelope.
type EventType string

const (
	JobStarted    EventType = "JOB_STARTED"
	TaskStarted   EventType = "TASK_STARTED"
	TaskCompleted EventType = "TASK_COMPLETED"
	JobCompleted  EventType = "JOB_COMPLETED"
)

// Envelope is the JSON body POSTed for every event.
type Envelope struct {
	JobName      string      `json:"jobName"`
	JobReference interface{} `json:"jobReference"`
	RunID        string      `json:"runId"`
	EventType    EventType   `json:"eventType"`
	Timestamp    string      `json:"timestamp"`
	Payload      interface{} `json:"payload"`
}

var (
	eventsReceivedMetric = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "factotum_webhook_events_received_total",
		Help: "Events pulled off the update bus for delivery.",
	})
	successCountMetric = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "factotum_webhook_success_count_total",
		Help: "Events successfully delivered to the configured webhook.",
	})
)

func init() {
	prometheus.MustRegister(eventsReceivedMetric, successCountMetric)
}

// Dispatcher drains a bus.Bus and delivers each event to a URL.
type Dispatcher struct {
	url     string
	runID   string
	jobName string
	jobRef  json.RawMessage
	client  *resty.Client

	eventsReceived int64
	successCount   int64

	wg sync.WaitGroup
}

// NewDispatcher validates url at configuration time (must start with
// http:// or https:// and parse) and prepares a Dispatcher. retryBudget
// bounds the number of retries per event after the first attempt; maxWait
// caps the backoff
// ceiling (the spec calls for randomized backoff within the first minute).
func NewDispatcher(rawURL, runID, jobName string, jobRef json.RawMessage, retryBudget int, maxWait time.Duration) (*Dispatcher, error) {
	if !hasHTTPScheme(rawURL) {
		return nil, fmt.Errorf("webhook url must start with http:// or https://")
	}
	if _, err := url.Parse(rawURL); err != nil {
		return nil, fmt.Errorf("invalid webhook url: %w", err)
	}
	if maxWait <= 0 {
		maxWait = 60 * time.Second
	}

	client := resty.New()
	client.SetRetryCount(retryBudget)
	client.SetRetryWaitTime(250 * time.Millisecond)
	client.SetRetryMaxWaitTime(maxWait)
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return r.StatusCode() < 200 || r.StatusCode() >= 300
	})

	return &Dispatcher{url: rawURL, runID: runID, jobName: jobName, jobRef: jobRef, client: client}, nil
}

func hasHTTPScheme(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Run drains events until the bus is closed, delivering each concurrently
// with the executor. Call Wait afterward to join delivery.
func (d *Dispatcher) Run(ctx context.Context, b *bus.Bus) {
	if b == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for evt := range b.Events() {
			d.deliver(ctx, evt)
		}
	}()
}

// Wait blocks until every received event has been attempted, per the
// "Waiting for webhook to finish sending events..." / "done!" contract.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Counts returns events_received and success_count for the terminal
// mismatch check.
func (d *Dispatcher) Counts() (received, succeeded int64) {
	return atomic.LoadInt64(&d.eventsReceived), atomic.LoadInt64(&d.successCount)
}

func (d *Dispatcher) deliver(ctx context.Context, evt bus.Event) {
	atomic.AddInt64(&d.eventsReceived, 1)
	eventsReceivedMetric.Inc()

	env := d.envelope(evt)
	resp, err := d.client.R().SetContext(ctx).SetBody(env).Post(d.url)
	if err != nil || resp.IsError() {
		// Retry budget already exhausted by the resty client; this is a
		// terminal delivery failure for this event.
		return
	}
	atomic.AddInt64(&d.successCount, 1)
	successCountMetric.Inc()
}

func (d *Dispatcher) envelope(evt bus.Event) Envelope {
	now := time.Now().UTC().Format(time.RFC3339)
	switch evt.Kind {
	case bus.RunStartedKind:
		e := evt.RunStarted
		return Envelope{JobName: d.jobName, JobReference: d.jobRef, RunID: d.runID, EventType: JobStarted, Timestamp: now, Payload: e}
	case bus.TaskStartedKind:
		e := evt.TaskStarted
		return Envelope{JobName: d.jobName, JobReference: d.jobRef, RunID: d.runID, EventType: TaskStarted, Timestamp: now, Payload: e}
	case bus.TaskFinishedKind:
		e := evt.TaskFinished
		return Envelope{JobName: d.jobName, JobReference: d.jobRef, RunID: d.runID, EventType: TaskCompleted, Timestamp: now, Payload: e}
	case bus.RunFinishedKind:
		e := evt.RunFinished
		return Envelope{JobName: d.jobName, JobReference: d.jobRef, RunID: d.runID, EventType: JobCompleted, Timestamp: now, Payload: e}
	default:
		return Envelope{JobName: d.jobName, JobReference: d.jobRef, RunID: d.runID, Timestamp: now}
	}
}
