package remote

import (
	"context"
	"fmt"

	"reqsync/internal/models"
)

// Verdict classifies the result of a single push
type Verdict int

const (
	// Accepted means the remote confirmed receipt (2xx).
	Accepted Verdict = iota
	// Rejected means the remote refused the record for good (a configured 4xx); never retried.
	Rejected
	// Unreachable covers timeouts, connection errors, 5xx and other statuses; retried later.
	Unreachable
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	case Unreachable:
		return "unreachable"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// Outcome is what a push reports back to its caller
type Outcome struct {
	Verdict    Verdict
	StatusCode int    // 0 when no response was received
	Reason     string // remote's explanation for Rejected, error text for Unreachable
}

func (o Outcome) String() string {
	if o.Reason == "" {
		return o.Verdict.String()
	}
	return fmt.Sprintf("%s (%s)", o.Verdict, o.Reason)
}

// Forwarder pushes one record to the remote system of record.
// Push never mutates local state; the caller acts on the Outcome.
type Forwarder interface {
	Push(ctx context.Context, rec models.Record) Outcome
}

// HealthProbe reports whether the remote is currently reachable.
// Failures are reported as false, never as errors.
type HealthProbe interface {
	IsReachable(ctx context.Context) bool
}

// Client bundles both remote operations behind one connection setup
type Client interface {
	Forwarder
	HealthProbe
	// BaseURL returns the remote base the client talks to
	BaseURL() string
}
