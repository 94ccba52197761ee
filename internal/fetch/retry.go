package fetch

import (
	"context"
	"strings"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
)

// isRetryable filters out errors that a retry cannot fix. A revert is the
// contract answering, not the transport failing.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "execution reverted") {
		return false
	}
	if strings.Contains(msg, "out of gas") {
		return false
	}
	return true
}

func (f *Fetcher) retryOptions(ctx context.Context) []retry.Option {
	return []retry.Option{
		retry.Attempts(f.cfg.RetryAttempts),
		retry.Delay(f.cfg.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.RetryIf(isRetryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			f.logger.Warn("rpc call failed",
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		}),
	}
}
