package monitoring

import "time"

// Timer measures an upstream call
type Timer struct {
	start   time.Time
	metrics *Metrics
	service string
}

// NewTimer creates a new timer. A nil metrics collector makes Stop a no-op.
func NewTimer(metrics *Metrics, service string) *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: metrics,
		service: service,
	}
}

// Stop records the call with its status and returns the elapsed time
func (t *Timer) Stop(status string) time.Duration {
	duration := time.Since(t.start)
	if t.metrics != nil {
		t.metrics.RecordUpstreamCall(t.service, status, duration)
	}
	return duration
}

// Status maps an error to a call status label
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
