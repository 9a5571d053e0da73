package events

import "errors"

// ErrNilHandler is returned when subscribing without a handler.
var ErrNilHandler = errors.New("event handler is required")
