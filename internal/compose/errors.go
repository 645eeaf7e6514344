package compose

import "fmt"

// SchemaError reports a field definition that is structurally invalid beyond
// recoverable degradation. It fails the whole generation pass for the app.
type SchemaError struct {
	Field  string
	Reason string
}

// Error implements the error interface
func (e SchemaError) Error() string {
	return fmt.Sprintf("schema error in field %q: %s", e.Field, e.Reason)
}

// TransformError reports a transform pass failure. Unknown transform tags are
// deliberately not reported through this type; they degrade to a logged no-op
// so stale blueprints keep generating.
type TransformError struct {
	Transform string
	Field     string
	Reason    string
}

// Error implements the error interface
func (e TransformError) Error() string {
	return fmt.Sprintf("transform %q failed for field %q: %s", e.Transform, e.Field, e.Reason)
}

// ValidationError reports an assembled descriptor that fails structural
// validation. The message is surfaced verbatim to the user.
type ValidationError struct {
	Service string
	Reason  string
}

// Error implements the error interface
func (e ValidationError) Error() string {
	if e.Service == "" {
		return "invalid stack: " + e.Reason
	}
	return fmt.Sprintf("invalid stack: service %q: %s", e.Service, e.Reason)
}
