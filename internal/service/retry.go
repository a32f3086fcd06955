package service

import (
	"context"
	"strings"
	"time"
)

const maxIntentosEscritura = 3

// esErrorTransitorio reports whether a store error is worth retrying:
// serialization failures, deadlocks and lock timeouts. Anything else is
// surfaced as-is.
func esErrorTransitorio(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "could not serialize") ||
		strings.Contains(msg, "lock timeout")
}

// conReintentos runs fn up to maxIntentosEscritura times, backing off briefly
// between transient store failures. If the conflict persists the caller gets
// ErrConflicto, never the raw store error.
func conReintentos(ctx context.Context, fn func() error) error {
	var err error
	for intento := 0; intento < maxIntentosEscritura; intento++ {
		if err = fn(); err == nil || !esErrorTransitorio(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(intento+1) * 50 * time.Millisecond):
		}
	}
	return ErrConflicto
}
