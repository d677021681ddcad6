// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import "fmt"

// ConfigurationError is returned when a required setting is missing or
// invalid. It is always raised before any network call is attempted.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Reason)
}

// AuthError is returned when the qBittorrent WebUI rejects the configured
// credentials or cannot be reached at all.
type AuthError struct {
	Host string
	Err  error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("qBittorrent authentication failed for %s: %v", e.Host, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// APIError is returned when either upstream API answers with a non-success
// status or a payload that does not decode.
type APIError struct {
	Endpoint string
	Err      error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error from %s: %v", e.Endpoint, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// ValidationError is reported per malformed info hash. It never aborts the
// rest of the batch.
type ValidationError struct {
	InfoHash string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid info hash %q: %s", e.InfoHash, e.Reason)
}

// TransportError is returned when the cross-seed daemon is unreachable
// (connection refused, timeout). It is fatal for the whole run.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("cross-seed unreachable at %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
