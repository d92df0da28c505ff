package httperrors

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func record(respond func(c *gin.Context)) (*httptest.ResponseRecorder, ErrorResponse) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respond(c)

	var body ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestResponses(t *testing.T) {
	tests := []struct {
		name        string
		respond     func(c *gin.Context)
		wantStatus  int
		wantMessage string
		wantCode    string
	}{
		{"unauthorized default message", func(c *gin.Context) { RespondUnauthorized(c, "") },
			401, MsgUnauthorized, CodeUnauthorized},
		{"unauthorized custom message", func(c *gin.Context) { RespondUnauthorized(c, MsgInvalidCredentials) },
			401, MsgInvalidCredentials, CodeUnauthorized},
		{"invalid token", RespondInvalidToken,
			401, MsgInvalidToken, CodeInvalidToken},
		{"forbidden", RespondForbidden,
			403, MsgForbidden, CodeForbidden},
		{"bad request default message", func(c *gin.Context) { RespondBadRequest(c, "") },
			400, MsgBadRequest, CodeBadRequest},
		{"bad request custom message", func(c *gin.Context) { RespondBadRequest(c, "Custom message") },
			400, "Custom message", CodeBadRequest},
		{"internal error", RespondInternalError,
			500, MsgInternalError, CodeInternalError},
		{"not found default message", func(c *gin.Context) { RespondNotFound(c, "") },
			404, MsgResourceNotFound, CodeNotFound},
		{"not found session message", func(c *gin.Context) { RespondNotFound(c, MsgSessionNotFound) },
			404, MsgSessionNotFound, CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := record(tt.respond)

			require.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantMessage, body.Error)
			assert.Equal(t, tt.wantCode, body.Code)
		})
	}
}

func TestMessagesDoNotLeakInternalDetails(t *testing.T) {
	messages := []string{
		MsgUnauthorized, MsgInvalidToken, MsgInvalidAuthHeader,
		MsgInvalidCredentials, MsgForbidden, MsgInternalError,
		MsgResourceNotFound, MsgBadRequest, MsgSessionNotFound,
	}

	for _, msg := range messages {
		assert.NotContains(t, msg, "stack trace")
		assert.NotContains(t, msg, "MongoDB")
		assert.NotContains(t, msg, "panic")
		assert.NotContains(t, msg, "nil pointer")
		assert.NotContains(t, msg, "/internal/")
	}
}
