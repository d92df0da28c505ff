package message

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Feature: livechat-wire-protocol
// Property 1: Legacy Payload Normalization
//
// For any string body, the legacy bare-string form and the structured form
// decode to the same Body, and the legacy form never produces a token.
func TestProperty_LegacyPayloadNormalization(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("bare string and structured object agree on body", prop.ForAll(
		func(body string) bool {
			bare, err := json.Marshal(body)
			if err != nil {
				return false
			}
			structured, err := json.Marshal(map[string]string{"body": body})
			if err != nil {
				return false
			}

			var fromBare, fromStructured VisitorMessagePayload
			if err := json.Unmarshal(bare, &fromBare); err != nil {
				return false
			}
			if err := json.Unmarshal(structured, &fromStructured); err != nil {
				return false
			}

			return fromBare.Body == body &&
				fromBare.Token == "" &&
				fromStructured.Body == body
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// Feature: livechat-wire-protocol
// Property 2: Blank Body Rejection
//
// A visitor message whose body is empty or whitespace-only never passes
// validation, regardless of the token.
func TestProperty_BlankBodyRejection(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	whitespaceGen := gen.SliceOf(gen.OneConstOf(' ', '\t', '\n', '\r')).Map(
		func(runes []rune) string { return string(runes) })

	properties.Property("whitespace-only bodies are rejected", prop.ForAll(
		func(body string, token string) bool {
			if len(token) > MaxTokenLength {
				return true
			}
			p := VisitorMessagePayload{Token: token, Body: body}
			return p.Validate() != nil
		},
		whitespaceGen,
		gen.AlphaString(),
	))

	properties.Property("non-blank bodies within limits are accepted", prop.ForAll(
		func(body string) bool {
			trimmed := strings.TrimSpace(body)
			if trimmed == "" || len(body) > MaxBodyLength {
				return true
			}
			p := VisitorMessagePayload{Token: "sess-abc", Body: body}
			return p.Validate() == nil
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// Feature: livechat-wire-protocol
// Property 3: Sanitization Idempotence
//
// Sanitizing a payload twice yields the same result as sanitizing once.
func TestProperty_SanitizeIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("sanitize is idempotent", prop.ForAll(
		func(token, body string) bool {
			once := VisitorMessagePayload{Token: token, Body: body}
			once.Sanitize()

			twice := once
			twice.Sanitize()

			return once == twice
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
