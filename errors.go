package mcpcli

import "errors"

// Sentinel errors for common failure modes. Adapters wrap them with
// fmt.Errorf so callers can match with errors.Is.
var (
	// ErrValidation indicates a request or message failed validation.
	ErrValidation = errors.New("validation error")

	// ErrStreamNotReady indicates Response() was called before Next().
	ErrStreamNotReady = errors.New("stream not ready: call Next() first")

	// ErrStreamClosed indicates an operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")

	// ErrToolNotFound indicates the requested tool is not registered.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidArguments indicates tool arguments do not match the
	// callable's parameters.
	ErrInvalidArguments = errors.New("invalid arguments")

	// ErrRemoteTool indicates a remote tool endpoint failed or answered
	// with a non-success status.
	ErrRemoteTool = errors.New("remote tool error")

	// ErrToolFailed indicates a local tool ran and returned an error.
	ErrToolFailed = errors.New("tool failed")

	// ErrGeneration indicates the generation endpoint failed.
	ErrGeneration = errors.New("generation error")

	// ErrResourceNotFound indicates a resource document could not be
	// resolved by name.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrSessionClosed indicates the session reached its terminal state.
	ErrSessionClosed = errors.New("session closed")

	// ErrSessionBusy indicates a dispatch was attempted while another one
	// is in flight.
	ErrSessionBusy = errors.New("session busy")
)

// kinds is ordered: the first match wins, so more specific causes come
// before the wrappers that usually carry them.
var kinds = []struct {
	err  error
	name string
}{
	{ErrResourceNotFound, "ResourceNotFound"},
	{ErrToolNotFound, "ToolNotFound"},
	{ErrInvalidArguments, "InvalidArguments"},
	{ErrRemoteTool, "RemoteToolError"},
	{ErrGeneration, "GenerationError"},
	{ErrToolFailed, "ToolFailed"},
	{ErrValidation, "ValidationError"},
	{ErrSessionClosed, "SessionClosed"},
	{ErrSessionBusy, "SessionBusy"},
}

// KindOf returns the name of the failure kind err carries, or "Error" when
// it wraps none of the package sentinels.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Error"
}
