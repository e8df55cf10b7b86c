package credentials

import "errors"

// ErrNoCredential indicates the pool holds no credentials.
var ErrNoCredential = errors.New("no credentials configured")
