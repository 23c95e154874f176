package workflow

import "time"

// RetryPolicy defines retry behavior for transient activity failures.
type RetryPolicy struct {
	InitialInterval    time.Duration
	MaxInterval        time.Duration
	BackoffCoefficient float64
	MaxAttempts        int
}

// BackoffFor returns the delay before the given retry. attempt is 1-based:
// the delay after the first failed attempt is the initial interval.
func (p RetryPolicy) BackoffFor(attempt int) time.Duration {
	delay := p.InitialInterval
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * p.BackoffCoefficient)
		if delay >= p.MaxInterval {
			return p.MaxInterval
		}
	}
	if delay > p.MaxInterval {
		return p.MaxInterval
	}
	return delay
}

// ActivityOptions attaches the execution policy to one activity invocation.
type ActivityOptions struct {
	Name                string
	StartToCloseTimeout time.Duration
	Retry               RetryPolicy
}

// Per-activity policies as declared by the two workflow definitions.
var (
	ExtractInterestsOptions = ActivityOptions{
		Name:                ActivityExtractInterests,
		StartToCloseTimeout: 60 * time.Second,
		Retry: RetryPolicy{
			InitialInterval:    1 * time.Second,
			MaxInterval:        10 * time.Second,
			BackoffCoefficient: 2.0,
			MaxAttempts:        3,
		},
	}

	ValidateRequestOptions = ActivityOptions{
		Name:                ActivityValidateRequest,
		StartToCloseTimeout: 10 * time.Second,
		Retry: RetryPolicy{
			InitialInterval:    1 * time.Second,
			MaxInterval:        5 * time.Second,
			BackoffCoefficient: 2.0,
			MaxAttempts:        2,
		},
	}

	// Longer budget: third-party geocoding API latency and rate limits.
	GeocodePostcodesOptions = ActivityOptions{
		Name:                ActivityGeocodePostcodes,
		StartToCloseTimeout: 120 * time.Second,
		Retry: RetryPolicy{
			InitialInterval:    2 * time.Second,
			MaxInterval:        10 * time.Second,
			BackoffCoefficient: 2.0,
			MaxAttempts:        3,
		},
	}

	// Long budget: scoring may issue up to ten language-model calls.
	CalculateMatchesOptions = ActivityOptions{
		Name:                ActivityCalculateMatches,
		StartToCloseTimeout: 300 * time.Second,
		Retry: RetryPolicy{
			InitialInterval:    2 * time.Second,
			MaxInterval:        10 * time.Second,
			BackoffCoefficient: 2.0,
			MaxAttempts:        2,
		},
	}
)
