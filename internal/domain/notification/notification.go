// Package notification contains the message model and delivery ports for the
// chat platform. Delivery in this system is best-effort: callers receive a
// success flag, never an error, and proceed with their transaction regardless.
package notification

import (
	"context"
	"time"
)

// Broadcast identifies one of the fixed announcement channels.
type Broadcast string

const (
	// BroadcastReviewQueue receives newly submitted applications.
	BroadcastReviewQueue Broadcast = "review_queue"
	// BroadcastAcceptedLog receives acceptance announcements.
	BroadcastAcceptedLog Broadcast = "accepted_log"
	// BroadcastRejectedLog receives rejection announcements.
	BroadcastRejectedLog Broadcast = "rejected_log"
	// BroadcastAuditLog receives audit trail posts.
	BroadcastAuditLog Broadcast = "audit_log"
)

// IsValid checks the broadcast channel name.
func (b Broadcast) IsValid() bool {
	switch b {
	case BroadcastReviewQueue, BroadcastAcceptedLog, BroadcastRejectedLog, BroadcastAuditLog:
		return true
	default:
		return false
	}
}

// Field is a labeled value rendered inside a message.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Message is a platform-independent notification. The adapter decides how it
// renders; exact visual formatting is not part of the contract.
type Message struct {
	Title  string
	Body   string
	Fields []Field
	Footer string

	// Ref optionally carries the ID of the record the message is about.
	// Adapters that support interactive controls attach them keyed by Ref;
	// adapters that do not simply ignore it.
	Ref string
}

// AddField appends a labeled value and returns the message for chaining.
func (m *Message) AddField(name, value string, inline bool) *Message {
	m.Fields = append(m.Fields, Field{Name: name, Value: value, Inline: inline})
	return m
}

// DeliveryResult reports the outcome of a single send attempt.
type DeliveryResult struct {
	Success     bool
	MessageID   string
	DeliveredAt time.Time
	Error       error
	Retryable   bool
}

// SuccessResult builds a successful delivery result.
func SuccessResult(messageID string) DeliveryResult {
	return DeliveryResult{Success: true, MessageID: messageID, DeliveredAt: time.Now().UTC()}
}

// FailureResult builds a failed delivery result.
func FailureResult(err error, retryable bool) DeliveryResult {
	return DeliveryResult{Success: false, Error: err, Retryable: retryable, DeliveredAt: time.Now().UTC()}
}

// Sink is implemented by the platform adapter. Sink methods return the raw
// delivery outcome; they are only ever called through a Dispatcher.
type Sink interface {
	// SendDirect delivers a private message to a platform user.
	SendDirect(ctx context.Context, userID string, msg Message) DeliveryResult

	// SendBroadcast posts to one of the fixed announcement channels.
	SendBroadcast(ctx context.Context, ch Broadcast, msg Message) DeliveryResult
}

// Dispatcher is the best-effort delivery port the lifecycle composes. Every
// failure is logged and reported as false; nothing is retried and nothing
// propagates to the caller as an error.
type Dispatcher interface {
	// NotifyUser sends a private message, reporting delivery success.
	NotifyUser(ctx context.Context, userID string, msg Message) bool

	// Announce posts to a broadcast channel, reporting delivery success.
	Announce(ctx context.Context, ch Broadcast, msg Message) bool
}
