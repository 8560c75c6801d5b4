// Package notify implements the best-effort delivery layer between the
// lifecycle handlers and the platform sink. Nothing in this package returns
// an error: delivery failures are logged, counted against the circuit
// breaker, and reported to the caller as a boolean.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/maestros-hub/maestros-community-backend/internal/domain/notification"
	"github.com/maestros-hub/maestros-community-backend/pkg/circuitbreaker"
	"github.com/maestros-hub/maestros-community-backend/pkg/retry"
)

// sendTimeout bounds a single delivery attempt. A slow platform must not
// hold an application transition hostage.
const sendTimeout = 5 * time.Second

// Dispatcher implements notification.Dispatcher over a platform sink.
type Dispatcher struct {
	sink    notification.Sink
	breaker *circuitbreaker.CircuitBreaker
	retrier *retry.Retrier
	logger  *zap.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(sink notification.Sink, logger *zap.Logger) *Dispatcher {
	log := logger.With(zap.String("component", "notify"))

	breaker := circuitbreaker.New("platform-delivery",
		circuitbreaker.WithFailureThreshold(5),
		circuitbreaker.WithSuccessThreshold(2),
		circuitbreaker.WithTimeout(30*time.Second),
		circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
			log.Warn("delivery circuit state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		}),
	)

	retrier := retry.New(
		retry.WithMaxAttempts(2),
		retry.WithInitialDelay(500*time.Millisecond),
		retry.WithRetryIf(retry.IsRetryable),
	)

	return &Dispatcher{
		sink:    sink,
		breaker: breaker,
		retrier: retrier,
		logger:  log,
	}
}

// NotifyUser sends a direct message, reporting delivery success.
func (d *Dispatcher) NotifyUser(ctx context.Context, userID string, msg notification.Message) bool {
	ok := d.deliver(ctx, func(ctx context.Context) notification.DeliveryResult {
		return d.sink.SendDirect(ctx, userID, msg)
	})
	if !ok {
		d.logger.Warn("direct message not delivered",
			zap.String("user_id", userID), zap.String("title", msg.Title))
	}
	return ok
}

// Announce posts to a broadcast channel, reporting delivery success.
func (d *Dispatcher) Announce(ctx context.Context, ch notification.Broadcast, msg notification.Message) bool {
	ok := d.deliver(ctx, func(ctx context.Context) notification.DeliveryResult {
		return d.sink.SendBroadcast(ctx, ch, msg)
	})
	if !ok {
		d.logger.Warn("broadcast not delivered",
			zap.String("channel", string(ch)), zap.String("title", msg.Title))
	}
	return ok
}

// deliver runs one send through panic recovery, the circuit breaker, the
// per-attempt timeout, and a single retry for transient failures.
func (d *Dispatcher) deliver(ctx context.Context, send func(context.Context) notification.DeliveryResult) (delivered bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic during delivery", zap.Any("panic", r))
			delivered = false
		}
	}()

	err := d.breaker.Execute(ctx, func(ctx context.Context) error {
		return d.retrier.Do(ctx, func(ctx context.Context) error {
			attemptCtx, cancel := context.WithTimeout(ctx, sendTimeout)
			defer cancel()

			result := send(attemptCtx)
			if result.Success {
				return nil
			}
			if result.Retryable {
				return retry.Retryable(result.Error)
			}
			return retry.Permanent(result.Error)
		})
	})

	return err == nil
}
