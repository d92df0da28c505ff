package errors

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Feature: livechat-error-taxonomy
// Property 1: Wire Form Never Leaks Causes
//
// For any cause text, ToErrorInfo on a provider failure never includes the
// cause in the wire-facing message.
func TestProperty_WireFormNeverLeaksCause(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("provider cause text stays out of the wire form", prop.ForAll(
		func(causeText string) bool {
			if causeText == "" {
				return true
			}
			cause := stderrors.New(causeText)

			for _, err := range []*ChatError{
				ErrRateLimited(time.Hour, cause),
				ErrProviderUnavailable(cause),
				ErrProviderAuthFailure(cause),
			} {
				info := err.ToErrorInfo()
				// The fixed messages never contain arbitrary cause text
				if info.Message != err.Message {
					return false
				}
			}
			return true
		},
		gen.Identifier(),
	))

	properties.TestingRun(t)
}

// Feature: livechat-error-taxonomy
// Property 2: Retry-After Conversion
//
// For any non-negative duration, the wire form reports whole seconds.
func TestProperty_RetryAfterConversion(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("retry-after survives as whole seconds", prop.ForAll(
		func(seconds int) bool {
			if seconds < 0 || seconds > 1<<30 {
				return true
			}
			err := ErrRateLimited(time.Duration(seconds)*time.Second, nil)
			return err.ToErrorInfo().RetryAfter == seconds
		},
		gen.IntRange(0, 86400),
	))

	properties.TestingRun(t)
}

// Feature: livechat-error-taxonomy
// Property 3: Fatality Matches Recoverability
//
// IsFatal is always the exact negation of Recoverable, for every constructor.
func TestProperty_FatalityMatchesRecoverability(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	constructors := []func(cause error) *ChatError{
		ErrInvalidToken,
		ErrExpiredToken,
		ErrInsufficientPermissions,
		ErrProviderUnavailable,
		ErrProviderAuthFailure,
		ErrDatabaseError,
	}

	properties.Property("IsFatal == !Recoverable", prop.ForAll(
		func(idx int, causeText string) bool {
			ctor := constructors[idx%len(constructors)]
			err := ctor(stderrors.New(causeText))
			return err.IsFatal() == !err.Recoverable
		},
		gen.IntRange(0, len(constructors)-1),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
