package convert

import "errors"

// ErrInvalidConfiguration is wrapped by errors from NewOptions.
var ErrInvalidConfiguration = errors.New("invalid configuration")
