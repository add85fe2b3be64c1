package models

// MFetchOutcome is the settled result of one named request:
// either Fulfilled with Value, or Rejected with Reason.
type MFetchOutcome struct {
	Name   string
	Value  any
	Err    error
	Reason string
}

// Fulfilled reports whether the request produced a value.
func (o MFetchOutcome) Fulfilled() bool {
	return o.Err == nil
}
