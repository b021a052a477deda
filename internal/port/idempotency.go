package port

import "context"

// IdempotencyStore remembers responses of inbound calls that carried an
// idempotency key, so a retried call is answered without sending twice.
type IdempotencyStore interface {
	// Reserve atomically claims key for an in-flight call. When the key is
	// already taken it returns false with the remembered response, or with
	// nil data while the first call is still running.
	Reserve(ctx context.Context, key string) (bool, []byte, error)
	// Save replaces the reservation with the response payload.
	Save(ctx context.Context, key string, data []byte) error
	// Release drops a reservation so the key can be used again.
	Release(ctx context.Context, key string) error
}
