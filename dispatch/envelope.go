package dispatch

import "errors"

// Envelope is the response shape for every operation.
type Envelope struct {
	Success bool   `json:"success"`
	Content string `json:"content,omitempty"`
	Message string `json:"message,omitempty"`
}

// Succeed wraps content.
func Succeed(content string) Envelope {
	return Envelope{Success: true, Content: content}
}

// Fail turns err into a failed envelope. Only dispatch errors carry their
// message through; anything else becomes a generic message so internals
// never leak.
func Fail(err error) Envelope {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return Envelope{Success: false, Message: de.Message}
	}
	return Envelope{Success: false, Message: "Something went wrong"}
}
