package history

import "errors"

var (
	ErrRecorderClosed = errors.New("history recorder closed")
	ErrInvalidLimit   = errors.New("limit must be positive")
)
