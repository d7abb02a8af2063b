// Package glerr classifies the errors that can surface from a sales-to-GL
// job so the worker layer can decide whether to retry without inspecting
// error strings.
package glerr

import "errors"

// Sentinel causes. Wrap these with fmt.Errorf("...: %w", ErrX) to attach
// context while keeping errors.Is classification working.
var (
	// ErrNetworkTransient covers HTTP 5xx, timeouts, and connection resets
	// from the POS API. One in-flight retry is attempted before the call
	// is counted as a per-store failure.
	ErrNetworkTransient = errors.New("network error: transient")

	// ErrNetworkPermanent covers HTTP 4xx responses other than 429. No
	// retry is attempted.
	ErrNetworkPermanent = errors.New("network error: permanent")

	// ErrParse covers malformed JSON, CSV, or JSON-RPC payloads. Fatal for
	// the job that produced it.
	ErrParse = errors.New("parse error")

	// ErrInvariantViolation covers an aggregator that produced unbalanced
	// totals before overage reconciliation could apply.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrConfigMissing covers no active stores, no credentials, or no
	// schedule entry for a queue.
	ErrConfigMissing = errors.New("configuration missing")

	// ErrStorageUnavailable covers Redis or Postgres being unreachable.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Retryable reports whether err is a transient condition worth retrying:
// transient network failures (the POS client retries these once in
// flight), unavailable storage, and missing configuration. Permanent
// network, parse and invariant failures are never retryable.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, ErrNetworkTransient):
		return true
	case errors.Is(err, ErrStorageUnavailable):
		return true
	case errors.Is(err, ErrConfigMissing):
		return true
	default:
		return false
	}
}

// StoreFailure records a per-store failure inside an otherwise successful
// job. Per-store failures never abort the job; they are collected and
// reported in the job result's failedStores list.
type StoreFailure struct {
	Store string
	Err   error
}

func (f StoreFailure) Error() string {
	return f.Store + ": " + f.Err.Error()
}

func (f StoreFailure) Unwrap() error {
	return f.Err
}
