package faults

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantKind      Kind
		wantRetryable bool
	}{
		{
			name:          "5xx envelope is a retryable server fault",
			err:           &TransportError{StatusCode: 503, Message: "unavailable"},
			wantKind:      KindServerFault,
			wantRetryable: true,
		},
		{
			name:          "server fault code without status",
			err:           &TransportError{FaultCode: "server.internal", Message: "boom"},
			wantKind:      KindServerFault,
			wantRetryable: true,
		},
		{
			name:          "429 is quota exceeded, not a generic client fault",
			err:           &TransportError{StatusCode: 429, Message: "slow down"},
			wantKind:      KindQuotaExceeded,
			wantRetryable: false,
		},
		{
			name:          "4xx envelope is a non-retryable client fault",
			err:           &TransportError{StatusCode: 404, Message: "no such endpoint"},
			wantKind:      KindClientFault,
			wantRetryable: false,
		},
		{
			name:          "client fault code without status",
			err:           &TransportError{FaultCode: "client.validation", Message: "bad payload"},
			wantKind:      KindClientFault,
			wantRetryable: false,
		},
		{
			name:          "deadline exceeded is a timeout",
			err:           fmt.Errorf("request failed: %w", context.DeadlineExceeded),
			wantKind:      KindTimeout,
			wantRetryable: true,
		},
		{
			name:          "net timeout is a timeout",
			err:           timeoutErr{},
			wantKind:      KindTimeout,
			wantRetryable: true,
		},
		{
			name:          "connection refused",
			err:           fmt.Errorf("dial: %w", syscall.ECONNREFUSED),
			wantKind:      KindConnectionRefused,
			wantRetryable: true,
		},
		{
			name:          "connection reset",
			err:           fmt.Errorf("read: %w", syscall.ECONNRESET),
			wantKind:      KindConnectionReset,
			wantRetryable: true,
		},
		{
			name:          "dns failure is permanent",
			err:           &net.DNSError{Err: "no such host", Name: "broker.invalid"},
			wantKind:      KindDNSError,
			wantRetryable: false,
		},
		{
			name:          "quota wording in a plain error",
			err:           errors.New("rate limit exceeded for tenant"),
			wantKind:      KindQuotaExceeded,
			wantRetryable: false,
		},
		{
			name:          "anything else defaults to retryable unknown",
			err:           errors.New("weird transient thing"),
			wantKind:      KindUnknown,
			wantRetryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.err)
			assert.Equal(t, tt.wantKind, c.Kind)
			assert.Equal(t, tt.wantRetryable, c.Retryable)
		})
	}
}

func TestClassify_EnvelopePrecedence(t *testing.T) {
	// A structured envelope wins over whatever it wraps.
	err := &TransportError{
		StatusCode: 500,
		Message:    "backend exploded",
		Err:        context.DeadlineExceeded,
	}
	c := Classify(err)
	assert.Equal(t, KindServerFault, c.Kind)
	assert.True(t, c.Retryable)
}

func TestClassify_Nil(t *testing.T) {
	c := Classify(nil)
	assert.Equal(t, KindUnknown, c.Kind)
	assert.False(t, c.Retryable)
}

func TestTransportError_Error(t *testing.T) {
	assert.Equal(t,
		"transport fault client.validation (status 400): bad payload",
		(&TransportError{StatusCode: 400, FaultCode: "client.validation", Message: "bad payload"}).Error(),
	)
	assert.Equal(t,
		"transport fault (status 502): gateway",
		(&TransportError{StatusCode: 502, Message: "gateway"}).Error(),
	)
}
