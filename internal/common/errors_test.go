package common

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Is(t *testing.T) {
	tests := []struct {
		target error
		name   string
		kind   ErrorKind
		want   bool
	}{
		{name: "transport matches transport", kind: KindTransport, target: ErrTransport, want: true},
		{name: "client matches client", kind: KindClient, target: ErrClient, want: true},
		{name: "server matches server", kind: KindServer, target: ErrServer, want: true},
		{name: "client does not match server", kind: KindClient, target: ErrServer, want: false},
		{name: "request matches nothing", kind: KindRequest, target: ErrTransport, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", &APIError{Kind: tt.kind})
			assert.Equal(t, tt.want, errors.Is(err, tt.target))
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	err := &APIError{Kind: KindClient, Status: 401, Message: "bad token"}
	assert.Equal(t, "client error: 401 Unauthorized: bad token", err.Error())

	err = &APIError{Kind: KindServer, Status: 502}
	assert.Equal(t, "server error: 502 Bad Gateway", err.Error())

	err = &APIError{Kind: KindTransport, Err: errors.New("dial tcp: refused")}
	assert.Equal(t, "transport error: dial tcp: refused", err.Error())
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "api error", err: fmt.Errorf("sign in: %w", &APIError{Kind: KindClient, Status: 401, UserMessage: "nope"}), want: "nope"},
		{name: "validation error", err: NewValidationError("comment", "Comment cannot exceed 30 characters."), want: "Comment cannot exceed 30 characters."},
		{name: "user error", err: NewUserError("run wallet login first", ErrNoToken), want: "run wallet login first"},
		{name: "plain error", err: errors.New("boom"), want: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestValidationError_Is(t *testing.T) {
	err := fmt.Errorf("add: %w", NewValidationError("amount", "Amount is required."))
	assert.True(t, errors.Is(err, ErrValidation))

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "amount", vErr.Field)
}

func TestUserError_Unwrap(t *testing.T) {
	err := NewUserError("friendly", ErrNoToken)
	assert.True(t, errors.Is(err, ErrNoToken))
	assert.Equal(t, "friendly: no session token", err.Error())
	assert.Equal(t, "friendly", NewUserError("friendly", nil).Error())
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestSetupLogger(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	var buf bytes.Buffer
	require.NoError(t, SetupLogger(&buf, slog.LevelInfo, "json"))
	ComponentLogger("api").Info("hello")
	assert.Contains(t, buf.String(), `"component":"api"`)

	assert.Error(t, SetupLogger(&buf, slog.LevelInfo, "xml"))
}
