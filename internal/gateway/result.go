package gateway

import "fmt"

// Result is the outcome of one gateway call. It is one of Success,
// DuplicateRequest, TransportFailure, ServerFault, HTTPError, DomainError or
// SessionExpired.
type Result interface {
	result()
}

// Success carries the decoded payload with "ok" stamped to true.
type Success struct {
	Data map[string]any
}

// DuplicateRequest means a non-idempotent call to the same path was already
// outstanding. Nothing was dispatched.
type DuplicateRequest struct {
	Msg string
}

// TransportFailure means no HTTP response was obtained.
type TransportFailure struct {
	Err error
}

// ServerFault is a 500 or 503 response.
type ServerFault struct {
	Status int
}

// HTTPError is any other status above 300 except 401.
type HTTPError struct {
	Status     int
	StatusText string
	URL        string
	Body       string
}

// DomainError is an application failure inside an HTTP success envelope.
type DomainError struct {
	Code int
	Msg  string
}

// SessionExpired means the session token is no longer valid. Status is set for
// a 401 response, Code for an expiry sentinel in the payload. The session guard
// has already been invoked; the caller should drop the call.
type SessionExpired struct {
	Status int
	Code   int
}

func (Success) result()          {}
func (DuplicateRequest) result() {}
func (TransportFailure) result() {}
func (ServerFault) result()      {}
func (HTTPError) result()        {}
func (DomainError) result()      {}
func (SessionExpired) result()   {}

func (e DomainError) Error() string {
	return e.Msg
}

// Notice is the message shown to the user for this error.
func (e HTTPError) Notice() string {
	if e.Status == 404 {
		return fmt.Sprintf("%d %s : %s", e.Status, e.StatusText, e.URL)
	}
	return fmt.Sprintf("%d %s : %s", e.Status, e.StatusText, e.Body)
}

// Notice is the message shown to the user for this fault.
func (f ServerFault) Notice() string {
	if f.Status == 503 {
		return "Service is upgrading, please try again later"
	}
	return "Service error"
}

// Envelope is the flattened form of a Result: {ok, code, msg, data}. Only
// DuplicateRequest and DomainError carry detail; every other failure collapses
// to a bare {ok:false}.
type Envelope struct {
	OK   bool           `json:"ok"`
	Code int            `json:"code,omitempty"`
	Msg  string         `json:"msg,omitempty"`
	Data map[string]any `json:"data,omitempty"`
}

// Flatten converts a Result to its Envelope.
func Flatten(r Result) Envelope {
	switch v := r.(type) {
	case Success:
		return Envelope{OK: true, Data: v.Data}
	case DuplicateRequest:
		return Envelope{OK: false, Msg: v.Msg}
	case DomainError:
		return Envelope{OK: false, Code: v.Code, Msg: v.Msg}
	default:
		return Envelope{OK: false}
	}
}

// OK reports whether r is a Success.
func OK(r Result) bool {
	_, ok := r.(Success)
	return ok
}
