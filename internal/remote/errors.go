package remote

import "fmt"

// TransportError indicates the network call itself failed: the request
// never completed or no response was received.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError indicates the remote service responded, but the response was
// malformed, incomplete, or carried an error status. Message holds the
// server-supplied error text when the service provided one.
type ProtocolError struct {
	Op      string
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// ServerMessage extracts a server-supplied error message from err, or ""
// when the failure carried none.
func ServerMessage(err error) string {
	if pe, ok := err.(*ProtocolError); ok {
		return pe.Message
	}
	return ""
}
