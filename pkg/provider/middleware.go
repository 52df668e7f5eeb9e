package provider

import (
	"context"
	"time"

	"sculpt/pkg/logx"
	"sculpt/pkg/metrics"
	"sculpt/pkg/provider/generrors"
)

// WithTimeout bounds every generation call with a fixed deadline. A timeout
// surfaces as an ordinary failed attempt, not a terminal error.
func WithTimeout(timeout time.Duration) Middleware {
	return func(next Client) Client {
		return WrapClient(
			func(ctx context.Context, req Request) (Response, error) {
				if timeout > 0 {
					var cancel context.CancelFunc
					ctx, cancel = context.WithTimeout(ctx, timeout)
					defer cancel()
				}
				return next.Generate(ctx, req)
			},
			next.ModelName,
		)
	}
}

// WithMetrics records attempt outcomes, latency and token usage for every
// generation call. When the provider reports no usage, token counts fall
// back to a tokenizer estimate so the counters stay meaningful.
func WithMetrics(rec *metrics.Recorder, providerName string) Middleware {
	return func(next Client) Client {
		return WrapClient(
			func(ctx context.Context, req Request) (Response, error) {
				start := time.Now()
				resp, err := next.Generate(ctx, req)
				elapsed := time.Since(start)

				var inTokens, outTokens int64
				if resp.Usage != nil {
					inTokens = resp.Usage.InputTokens
					outTokens = resp.Usage.OutputTokens
				} else if err == nil {
					inTokens = int64(EstimateTokens(req.Prompt))
					outTokens = int64(EstimateTokens(resp.Text))
				}
				rec.ObserveGeneration(providerName, inTokens, outTokens, err == nil, elapsed)
				return resp, err
			},
			next.ModelName,
		)
	}
}

// WithLogging traces generation calls on the given component logger.
func WithLogging(logger *logx.Logger) Middleware {
	return func(next Client) Client {
		return WrapClient(
			func(ctx context.Context, req Request) (Response, error) {
				logger.Debug("generation call: model=%s prompt_tokens~%d", next.ModelName(), EstimateTokens(req.Prompt))
				resp, err := next.Generate(ctx, req)
				if err != nil {
					logger.Warn("generation failed: model=%s type=%s: %v", next.ModelName(), generrors.TypeOf(err).String(), err)
					return resp, err
				}
				logger.Debug("generation ok: model=%s output_bytes=%d stop=%s", next.ModelName(), len(resp.Text), resp.StopReason)
				return resp, nil
			},
			next.ModelName,
		)
	}
}
