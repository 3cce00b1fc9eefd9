package toc

// Error types for the extraction failure taxonomy
type (
	// UsageError indicates a missing or malformed input argument
	UsageError struct{ Message string }
	// CapabilityError indicates the requested PDF reader is not available
	CapabilityError struct {
		Message string
		Backend string
	}
	// NotFoundError indicates the referenced file does not exist
	NotFoundError struct {
		Message string
		Path    string
	}
	// DecodeError indicates base64 input could not be decoded
	DecodeError struct {
		Message string
		Err     error
	}
	// ParseError indicates the PDF could not be opened or its outline read
	ParseError struct {
		Message string
		Backend string
		Err     error
	}
	// InternalError indicates an unexpected fault inside a reader
	InternalError struct {
		Message string
		Trace   string
	}
)

func (e UsageError) Error() string      { return e.Message }
func (e CapabilityError) Error() string { return e.Message }
func (e NotFoundError) Error() string   { return e.Message }
func (e DecodeError) Error() string     { return e.Message }
func (e ParseError) Error() string      { return e.Message }
func (e InternalError) Error() string   { return e.Message }

func (e DecodeError) Unwrap() error { return e.Err }
func (e ParseError) Unwrap() error  { return e.Err }
