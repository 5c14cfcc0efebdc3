// Package dexagg provides price sources backed by DEX aggregator HTTP APIs.
package dexagg

import "errors"

var (
	// ErrChainRequired indicates that the chain/network id is missing.
	ErrChainRequired = errors.New("chain is required")
	// ErrAddressRequired indicates that the pair or token address is missing.
	ErrAddressRequired = errors.New("address is required")
)
