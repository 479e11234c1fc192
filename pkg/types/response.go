// Package types holds the JSON envelopes shared by every API response.
package types

// SuccessEnvelope wraps successful payloads. Warnings carry non-fatal
// problems from partially committed transactions alongside the data.
type SuccessEnvelope struct {
	Data     any        `json:"data"`
	Warnings []APIError `json:"warnings,omitempty"`
}

// APIError is the wire form of a pkg/errors.Error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps failed responses.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
