package device

import "errors"

var ErrNotFound = errors.New("device model not found")
