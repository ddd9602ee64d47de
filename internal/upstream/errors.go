package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Kind classifies why an upstream call failed.
type Kind string

const (
	KindNetwork   Kind = "network"
	KindTimeout   Kind = "timeout"
	KindUpstream  Kind = "upstream"
	KindMalformed Kind = "malformed"
)

// Sentinels for errors.Is; a *FetchError matches the sentinel of its Kind.
var (
	ErrNetwork   = errors.New("network failure")
	ErrTimeout   = errors.New("timeout")
	ErrUpstream  = errors.New("upstream error")
	ErrMalformed = errors.New("malformed response")
)

func (k Kind) sentinel() error {
	switch k {
	case KindNetwork:
		return ErrNetwork
	case KindTimeout:
		return ErrTimeout
	case KindUpstream:
		return ErrUpstream
	case KindMalformed:
		return ErrMalformed
	default:
		return nil
	}
}

// FetchError names the source that failed and the underlying cause.
type FetchError struct {
	Source     string
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == KindUpstream && e.StatusCode != 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s: HTTP %d: %v", e.Source, e.StatusCode, e.Err)
		}
		return fmt.Sprintf("%s: HTTP %d", e.Source, e.StatusCode)
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Source, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// Wrap turns any error into a *FetchError for source. Existing fetch
// errors are returned untouched so the innermost source name survives.
func Wrap(source string, err error) error {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &FetchError{Source: source, Kind: Classify(err), Err: err}
}

// Malformed reports a response whose shape was not what the source promises.
func Malformed(source, format string, args ...any) error {
	return &FetchError{Source: source, Kind: KindMalformed, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of err, classifying it when it is not a FetchError.
func KindOf(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Classify(err)
}

// Classify inspects a transport error. Deadline and net timeouts are
// KindTimeout; everything else that reached the transport is KindNetwork.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}
	if strings.Contains(strings.ToLower(err.Error()), "timeout") {
		return KindTimeout
	}
	return KindNetwork
}

var networkPatterns = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"network is unreachable",
	"dial tcp",
	"tls:",
	"certificate",
	"eof",
	"cors",
	"failed to fetch",
}

// IsNetworkMessage reports whether msg looks like a connectivity failure.
func IsNetworkMessage(msg string) bool {
	m := strings.ToLower(msg)
	for _, p := range networkPatterns {
		if strings.Contains(m, p) {
			return true
		}
	}
	return false
}
