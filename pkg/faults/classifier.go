// Package faults classifies transport failures into a fixed taxonomy with a
// retry-eligibility flag. Classification is pure; callers log and decide.
package faults

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// Kind is the classified failure category.
type Kind string

const (
	KindTimeout           Kind = "TIMEOUT"
	KindConnectionRefused Kind = "CONNECTION_REFUSED"
	KindConnectionReset   Kind = "CONNECTION_RESET"
	KindDNSError          Kind = "DNS_ERROR"
	KindTLSError          Kind = "TLS_ERROR"
	KindQuotaExceeded     Kind = "QUOTA_EXCEEDED"
	KindClientFault       Kind = "CLIENT_FAULT"
	KindServerFault       Kind = "SERVER_FAULT"
	KindUnknown           Kind = "UNKNOWN"
)

// Classification is the result of classifying one failure. It is derived,
// never stored; only Kind and Retryable reach the logs.
type Classification struct {
	Kind      Kind
	Retryable bool
	Message   string
}

// TransportError is a failure that carries a structured fault envelope from
// a counterparty: an HTTP status and/or a fault code string. Adapters raise
// it instead of returning silent nulls.
type TransportError struct {
	StatusCode int
	FaultCode  string
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	switch {
	case e.FaultCode != "" && e.StatusCode > 0:
		return fmt.Sprintf("transport fault %s (status %d): %s", e.FaultCode, e.StatusCode, e.Message)
	case e.StatusCode > 0:
		return fmt.Sprintf("transport fault (status %d): %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("transport fault %s: %s", e.FaultCode, e.Message)
	}
}

// Unwrap returns the wrapped error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Classify maps a failure into its Classification. Rules are evaluated in
// precedence order: structured fault envelope, timeout, connection refused,
// connection reset, DNS, TLS, quota, then a permissive UNKNOWN retryable
// default so transient issues are not silently dropped.
func Classify(err error) Classification {
	if err == nil {
		return Classification{Kind: KindUnknown, Retryable: false}
	}

	msg := err.Error()

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		if c, ok := classifyEnvelope(transportErr); ok {
			return c
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Classification{Kind: KindTimeout, Retryable: true, Message: msg}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Classification{Kind: KindTimeout, Retryable: true, Message: msg}
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return Classification{Kind: KindConnectionRefused, Retryable: true, Message: msg}
	}
	if errors.Is(err, syscall.ECONNRESET) {
		return Classification{Kind: KindConnectionReset, Retryable: true, Message: msg}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return Classification{Kind: KindDNSError, Retryable: false, Message: msg}
	}

	if isTLSError(err) {
		return Classification{Kind: KindTLSError, Retryable: false, Message: msg}
	}

	if isQuotaMessage(msg) {
		return Classification{Kind: KindQuotaExceeded, Retryable: false, Message: msg}
	}

	return Classification{Kind: KindUnknown, Retryable: true, Message: msg}
}

// classifyEnvelope applies the fault-code and status rules of a structured
// transport error.
func classifyEnvelope(e *TransportError) (Classification, bool) {
	code := strings.ToLower(e.FaultCode)
	msg := e.Error()

	switch {
	case strings.Contains(code, "server") || e.StatusCode >= 500:
		return Classification{Kind: KindServerFault, Retryable: true, Message: msg}, true
	case e.StatusCode == http.StatusTooManyRequests:
		return Classification{Kind: KindQuotaExceeded, Retryable: false, Message: msg}, true
	case strings.Contains(code, "client") || (e.StatusCode >= 400 && e.StatusCode < 500):
		return Classification{Kind: KindClientFault, Retryable: false, Message: msg}, true
	}
	return Classification{}, false
}

func isTLSError(err error) bool {
	var (
		recordErr  tls.RecordHeaderError
		verifyErr  *tls.CertificateVerificationError
		authErr    x509.UnknownAuthorityError
		invalidErr x509.CertificateInvalidError
		hostErr    x509.HostnameError
	)
	return errors.As(err, &recordErr) ||
		errors.As(err, &verifyErr) ||
		errors.As(err, &authErr) ||
		errors.As(err, &invalidErr) ||
		errors.As(err, &hostErr)
}

func isQuotaMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "quota") ||
		strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "too many requests") ||
		strings.Contains(lower, "throttl")
}
