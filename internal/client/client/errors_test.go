package client

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseError_Classification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"detail":"Given token not valid"}`, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, `{"detail":"nope"}`, ErrValidation},
		{"rate limited", http.StatusTooManyRequests, `{"error":"Too many login attempts. Try again later."}`, ErrValidation},
		{"field errors", http.StatusBadRequest, `{"name":["This field is required."]}`, ErrValidation},
		{"conflict", http.StatusConflict, ``, ErrConflict},
		{"unique set", http.StatusBadRequest, `{"non_field_errors":["The fields student, subject must make a unique set."]}`, ErrConflict},
		{"other non field", http.StatusBadRequest, `{"non_field_errors":["Subject is full."]}`, ErrValidation},
		{"server", http.StatusBadGateway, `<html>bad gateway</html>`, ErrServer},
		{"redirect", http.StatusFound, ``, ErrUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := responseError("op", tt.status, []byte(tt.body))
			require.ErrorIs(t, err, tt.want)
			for _, other := range []error{ErrUnavailable, ErrUnauthorized, ErrValidation, ErrConflict, ErrServer, ErrUnknown} {
				if other != tt.want {
					assert.NotErrorIs(t, err, other)
				}
			}
			assert.Equal(t, tt.status, err.Status)
		})
	}
}

func TestResponseError_Message(t *testing.T) {
	err := responseError("create students", http.StatusBadRequest,
		[]byte(`{"user":{"username":["A user with that username already exists."]},"faculty":["Invalid pk \"9\" - object does not exist."]}`))

	assert.Equal(t, `create students: HTTP 400: faculty: Invalid pk "9" - object does not exist.; user.username: A user with that username already exists.`, err.Error())
	assert.Equal(t, []string{"A user with that username already exists."}, err.Fields["user.username"])

	err = responseError("obtain token", http.StatusUnauthorized, []byte(`{"error":"Invalid credentials"}`))
	assert.Equal(t, "Invalid credentials", err.Message)

	err = responseError("x", http.StatusInternalServerError, nil)
	assert.Equal(t, "internal server error", err.Message)
}

func TestNetworkError_KeepsCause(t *testing.T) {
	err := networkError("list subjects", context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	wrapped := errors.Join(errors.New("outer"), err)
	apiErr, ok := AsAPIError(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindNetwork, apiErr.Kind)
	assert.False(t, IsAuth(wrapped))
}

func TestAPIError_ServerMessage(t *testing.T) {
	assert.True(t, responseError("x", http.StatusTooManyRequests, []byte(`{"error":"slow down"}`)).ServerMessage())
	assert.False(t, responseError("x", http.StatusBadGateway, nil).ServerMessage())
	assert.False(t, networkError("x", context.Canceled).ServerMessage())
}
