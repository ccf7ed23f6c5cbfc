// Package panzererr defines the error taxonomy shared across the gateway's
// components. Kinds are distinguished by type, not by string matching, so
// callers can use errors.As.
package panzererr

import "fmt"

// CipherCorruptInput is returned when ciphertext cannot be unpadded or
// base64-decoded. It usually means the credential file was copied from a
// different host than the one that encrypted it.
type CipherCorruptInput struct {
	Err error
}

func (e *CipherCorruptInput) Error() string {
	return fmt.Sprintf("cipher: corrupt input: %v", e.Err)
}

func (e *CipherCorruptInput) Unwrap() error { return e.Err }

// CredentialParseError marks a single malformed line in the credential
// file. It is non-fatal: the file is left intact and the record in
// question is treated as absent.
type CredentialParseError struct {
	Line string
}

func (e *CredentialParseError) Error() string {
	return fmt.Sprintf("credential store: could not parse line %q", e.Line)
}

// CredentialMissing is returned when a requested credential name is not
// present and prompting is disabled.
type CredentialMissing struct {
	Name string
}

func (e *CredentialMissing) Error() string {
	return fmt.Sprintf("credential store: %q is not set and prompting is disabled", e.Name)
}

// UnknownRateHeaderError is returned when the exchange emits an x-mbx-*
// header the accountant does not know how to reconcile. It is the one
// "stop the world" error: the accountant's correctness depends on knowing
// every rate-limit dimension the exchange speaks about.
type UnknownRateHeaderError struct {
	Header string
}

func (e *UnknownRateHeaderError) Error() string {
	return fmt.Sprintf("quota: unknown rate-limit header %q, refusing to silently ignore a new quota dimension", e.Header)
}

// ExchangeError wraps a non-2xx response from the exchange.
type ExchangeError struct {
	Endpoint   string
	StatusCode int
	Body       []byte
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("exchange: %s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// TransportError wraps a network/HTTP failure from the external transport.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
