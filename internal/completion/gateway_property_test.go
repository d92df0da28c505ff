package completion

import (
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/real-rm/livechat/internal/constants"
)

// Feature: completion-failure-fallbacks
// Property 1: Fallback Hour Estimates
//
// For any positive retry-after window, the rate-limited fallback reports a
// whole-hour estimate that covers the window, and every fallback wording
// promises human follow-up.
func TestProperty_FallbackHourEstimates(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("hour estimate covers the retry-after window", prop.ForAll(
		func(retrySeconds int) bool {
			// Skip invalid inputs
			if retrySeconds <= 0 || retrySeconds > 48*3600 {
				return true
			}

			retryAfter := time.Duration(retrySeconds) * time.Second
			body := FallbackBody(FailureRateLimited, retryAfter)

			expectedHours := retrySeconds / 3600
			if retrySeconds%3600 != 0 {
				expectedHours++
			}
			if expectedHours < 1 {
				expectedHours = 1
			}

			return strings.Contains(body, fmt.Sprintf("%d hour(s)", expectedHours)) &&
				strings.Contains(body, "human agent")
		},
		gen.IntRange(1, 48*3600),
	))

	properties.Property("every failure kind promises human follow-up", prop.ForAll(
		func(kindIndex int) bool {
			kinds := []FailureKind{FailureRateLimited, FailureProviderUnavailable, FailureAuthFailure}
			// Skip invalid inputs
			if kindIndex < 0 || kindIndex >= len(kinds) {
				return true
			}

			body := FallbackBody(kinds[kindIndex], time.Hour)
			return strings.Contains(body, "human agent")
		},
		gen.IntRange(0, 2),
	))

	properties.Property("retry-after header parsing agrees with the given seconds", prop.ForAll(
		func(seconds int) bool {
			// Skip invalid inputs
			if seconds <= 0 || seconds > 86400 {
				return true
			}

			parsed := parseRetryAfter(strconv.Itoa(seconds))
			return parsed == time.Duration(seconds)*time.Second
		},
		gen.IntRange(1, 86400),
	))

	properties.Property("missing or malformed headers fall back to one hour", prop.ForAll(
		func(header string) bool {
			// Skip values that parse as positive integers
			if n, err := strconv.Atoi(header); err == nil && n > 0 {
				return true
			}

			return parseRetryAfter(header) == constants.DefaultRetryAfter
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
