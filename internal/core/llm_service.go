package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"gwi.com/reelpick/internal/logging"
	"gwi.com/reelpick/internal/metrics"
)

const recommendationSystemInstruction = `You are a helpful assistant that recommends movies or shows based on the user's description.
Always respond with two sections: "Movies" and "TV Series".
Each section should be a numbered list in this format:
1. **Title** (Year): Description

For example:
Movies:
1. **Inception** (2010): A mind-bending thriller about dreams within dreams.
2. **The Dark Knight** (2008): Batman faces the Joker in this gritty crime drama.

TV Series:
1. **Breaking Bad** (2008-2013): A high school chemistry teacher becomes a meth kingpin.
2. **Game of Thrones** (2011-2019): Epic fantasy series about noble families fighting for power.

If you have no recommendations for a section, just write "None."

For each recommendation, add a note about where they can watch it, for example: (Available on Netflix, Amazon Prime, etc.).

If it's a TV series that has a singular year / season (e.g. 2008), you should format it as (2008-2008) to differentiate it from a movie.

If it's defined as an OVA (Original Video Animation), you should format it as if it was a television show with a single season and year (e.g. 2008-2008).

Another clause for OVAs is that they are usually anime, so whenever anybody asks for an anime, you should consider if the media is an OVA or not.`

// Completer sends a single prompt to a hosted text-completion model.
type Completer interface {
	Complete(ctx context.Context, systemInstruction, prompt string) (string, error)
	Name() string
}

type BreakerSettings struct {
	MaxFailures   uint32
	OpenFor       time.Duration
	HalfOpenProbe uint32
}

// LLMService makes exactly one completion call per request. Consecutive
// upstream failures open the breaker and later calls fail without reaching
// the provider until it half-opens again.
type LLMService struct {
	completer Completer
	timeout   time.Duration
	breaker   *gobreaker.CircuitBreaker[string]
}

func NewLLMService(completer Completer, timeout time.Duration, bs BreakerSettings) *LLMService {
	maxFailures := bs.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	settings := gobreaker.Settings{
		Name:        "completion-" + completer.Name(),
		MaxRequests: bs.HalfOpenProbe,
		Timeout:     bs.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Completion circuit breaker changed state")
		},
		IsSuccessful: func(err error) bool {
			// A caller hanging up says nothing about the provider.
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	return &LLMService{
		completer: completer,
		timeout:   timeout,
		breaker:   gobreaker.NewCircuitBreaker[string](settings),
	}
}

// Recommend asks the model for recommendations matching prompt and returns
// the raw completion text.
func (s *LLMService) Recommend(ctx context.Context, prompt string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	provider := s.completer.Name()
	start := time.Now()
	text, err := s.breaker.Execute(func() (string, error) {
		return s.completer.Complete(ctx, recommendationSystemInstruction, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordCompletion(provider, "rejected", 0)
		} else {
			metrics.RecordCompletion(provider, "error", time.Since(start))
		}
		return "", fmt.Errorf("%w: %w", ErrUpstreamFailure, err)
	}

	if strings.TrimSpace(text) == "" {
		metrics.RecordCompletion(provider, "empty", time.Since(start))
		return "", ErrEmptyResponse
	}
	metrics.RecordCompletion(provider, "ok", time.Since(start))
	return text, nil
}

func (s *LLMService) Close() error {
	if c, ok := s.completer.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
