// Package dto defines the wire envelope and the error-code taxonomy shared
// by every handler.
package dto

// Response is the uniform API envelope. Result carries the payload, Message
// the human-readable outcome. JWTExpired is the machine-readable
// re-authenticate signal set on every 401.
type Response struct {
	Success    bool   `json:"success"`
	Result     any    `json:"result"`
	Message    string `json:"message,omitempty"`
	Pagination any    `json:"pagination,omitempty"`
	JWTExpired bool   `json:"jwtExpired,omitempty"`
}

// NewSuccessResponse creates a success envelope.
func NewSuccessResponse(result any, message string) Response {
	return Response{
		Success: true,
		Result:  result,
		Message: message,
	}
}

// NewPaginatedResponse creates a success envelope with pagination metadata.
func NewPaginatedResponse(result any, pagination any, message string) Response {
	return Response{
		Success:    true,
		Result:     result,
		Message:    message,
		Pagination: pagination,
	}
}

// NewErrorResponse creates a failure envelope.
func NewErrorResponse(message string) Response {
	return Response{
		Success: false,
		Result:  nil,
		Message: message,
	}
}

// NewAuthErrorResponse creates a 401 envelope carrying the jwtExpired flag.
func NewAuthErrorResponse(message string) Response {
	return Response{
		Success:    false,
		Result:     nil,
		Message:    message,
		JWTExpired: true,
	}
}
