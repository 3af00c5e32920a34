package repository

import (
	"context"
	"time"
)

// boundCall caps a single store call so one stuck query cannot hold a
// request for its full deadline. A zero timeout leaves the caller's context
// untouched.
func boundCall(ctx context.Context, callTimeout time.Duration) (context.Context, context.CancelFunc) {
	if callTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, callTimeout)
}
