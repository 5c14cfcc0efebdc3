package sources

import "errors"

var (
	// ErrUnexpectedStatus indicates an unexpected HTTP status code.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status code")
	// ErrRateLimitExceeded indicates that a rate limit has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidResponse indicates an invalid response from the source.
	ErrInvalidResponse = errors.New("invalid response")
	// ErrNoPricesExtracted indicates that no price could be extracted from a response.
	ErrNoPricesExtracted = errors.New("no prices extracted from response")
	// ErrInvalidPrice indicates a price field that is not a decimal number.
	ErrInvalidPrice = errors.New("invalid price value")
	// ErrInvalidConfig indicates that the source configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrUnknownSource indicates a type.name pair with no registered factory.
	ErrUnknownSource = errors.New("unknown source")
	// ErrZeroLiquidity indicates that there is zero liquidity in the pool.
	ErrZeroLiquidity = errors.New("zero liquidity in pool")
	// ErrInvalidPoolResponse indicates that the pool response is invalid.
	ErrInvalidPoolResponse = errors.New("invalid pool response")
)
