package command

import "fmt"

// RegistrationError is returned when a command or group cannot be added to a
// tree. A tree that produced one should not be served.
type RegistrationError struct {
	Scope  string
	Name   string
	Reason string
	Err    error
}

func (e *RegistrationError) Error() string {
	scope := e.Scope
	if scope == "" {
		scope = "root"
	}
	msg := fmt.Sprintf("cannot register %q in %s: %s", e.Name, scope, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RegistrationError) Unwrap() error { return e.Err }
