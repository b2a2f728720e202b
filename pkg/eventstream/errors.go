package eventstream

import "errors"

// ErrNilGenerationEvent indicates a nil generation event payload was provided
// to a publisher.
var ErrNilGenerationEvent = errors.New("nil generation event")
