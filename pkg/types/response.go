package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// AckEnvelope is the bare acknowledgement returned to payment providers.
type AckEnvelope struct {
	OK bool `json:"ok"`
}
