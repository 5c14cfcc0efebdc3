package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/logging"
	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/server/sources"
)

// Uniswap V2 Pair ABI (only getReserves function).
const pairABIJSON = `[{
	"constant": true,
	"inputs": [],
	"name": "getReserves",
	"outputs": [
		{"internalType": "uint112", "name": "reserve0", "type": "uint112"},
		{"internalType": "uint112", "name": "reserve1", "type": "uint112"},
		{"internalType": "uint32", "name": "blockTimestampLast", "type": "uint32"}
	],
	"payable": false,
	"stateMutability": "view",
	"type": "function"
}]`

// maxDecimals keeps 10^decimals inside a uint256.
const maxDecimals = 77

// PoolConfig describes the DC/stable pair the pool source reads.
type PoolConfig struct {
	PairAddress common.Address
	// BaseIsToken0 is true when DC is token0 of the pair.
	BaseIsToken0 bool
	Decimals0    int
	Decimals1    int
}

// PoolSource reads the DC price from a Uniswap-V2 style pair's reserves.
// It is the ground-truth link of the fallback chain.
type PoolSource struct {
	*sources.BaseSource
	caller  ethereum.ContractCaller
	cfg     PoolConfig
	pairABI abi.ABI
}

// Reserves holds the pair reserves.
type Reserves struct {
	Reserve0           *big.Int
	Reserve1           *big.Int
	BlockTimestampLast uint32
}

// NewPoolSource creates the pool source from registry config:
//
//	rpc_url: "https://rpc.dogechain.dog"
//	pair_address: "0x..."
//	base_is_token0: true
//	decimals0: 18
//	decimals1: 6
func NewPoolSource(config map[string]interface{}) (sources.Source, error) {
	rpcURL := sources.GetString(config, "rpc_url", "")
	if rpcURL == "" {
		return nil, fmt.Errorf("%w", ErrRPCURLRequired)
	}

	cfg, err := parsePoolConfig(config)
	if err != nil {
		return nil, err
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	src, err := NewPoolSourceWithCaller(client, cfg, sources.GetLoggerFromConfig(config))
	if err != nil {
		client.Close()
		return nil, err
	}
	return src, nil
}

// NewPoolSourceWithCaller builds a pool source on an existing contract caller.
func NewPoolSourceWithCaller(caller ethereum.ContractCaller, cfg PoolConfig, logger *logging.Logger) (*PoolSource, error) {
	if cfg.Decimals0 < 0 || cfg.Decimals0 > maxDecimals || cfg.Decimals1 < 0 || cfg.Decimals1 > maxDecimals {
		return nil, fmt.Errorf("%w: %d/%d", ErrInvalidDecimals, cfg.Decimals0, cfg.Decimals1)
	}

	pairABI, err := abi.JSON(strings.NewReader(pairABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pair ABI: %w", err)
	}

	return &PoolSource{
		BaseSource: sources.NewBaseSource("pool", sources.SourceTypeEVM, logger),
		caller:     caller,
		cfg:        cfg,
		pairABI:    pairABI,
	}, nil
}

func parsePoolConfig(config map[string]interface{}) (PoolConfig, error) {
	pairAddr := sources.GetString(config, "pair_address", "")
	if pairAddr == "" {
		return PoolConfig{}, fmt.Errorf("%w", ErrPairAddressRequired)
	}
	if !common.IsHexAddress(pairAddr) {
		return PoolConfig{}, fmt.Errorf("%w: %s", ErrInvalidPairAddress, pairAddr)
	}

	return PoolConfig{
		PairAddress:  common.HexToAddress(pairAddr),
		BaseIsToken0: sources.GetBool(config, "base_is_token0", true),
		Decimals0:    sources.GetInt(config, "decimals0", 18),
		Decimals1:    sources.GetInt(config, "decimals1", 18),
	}, nil
}

// Fetch reads the pair reserves and returns quote units per DC.
func (s *PoolSource) Fetch(ctx context.Context) (float64, error) {
	reserves, err := s.getReserves(ctx)
	if err != nil {
		return 0, s.MarkResult(err)
	}

	price, err := s.calculatePrice(reserves.Reserve0, reserves.Reserve1)
	if err != nil {
		return 0, s.MarkResult(err)
	}

	s.Logger().Debug("Read pool reserves",
		"reserve0", reserves.Reserve0.String(),
		"reserve1", reserves.Reserve1.String(),
		"price", price.String())

	return price.InexactFloat64(), s.MarkResult(nil)
}

// Close releases the RPC connection when the source owns one.
func (s *PoolSource) Close() error {
	if c, ok := s.caller.(*ethclient.Client); ok {
		c.Close()
	}
	return nil
}

// getReserves calls the getReserves() function on the pair contract.
func (s *PoolSource) getReserves(ctx context.Context) (*Reserves, error) {
	data, err := s.pairABI.Pack("getReserves")
	if err != nil {
		return nil, fmt.Errorf("failed to pack getReserves call: %w", err)
	}

	pairAddr := s.cfg.PairAddress
	result, err := s.caller.CallContract(ctx, ethereum.CallMsg{
		To:   &pairAddr,
		Data: data,
	}, nil) // nil = latest block
	if err != nil {
		return nil, fmt.Errorf("failed to call getReserves: %w", err)
	}

	var reserves Reserves
	if err := s.pairABI.UnpackIntoInterface(&reserves, "getReserves", result); err != nil {
		return nil, fmt.Errorf("%w: %v", sources.ErrInvalidPoolResponse, err)
	}
	if reserves.Reserve0 == nil || reserves.Reserve1 == nil {
		return nil, fmt.Errorf("%w: missing reserves", sources.ErrInvalidPoolResponse)
	}

	return &reserves, nil
}

// calculatePrice returns the spot price of the base token in quote units:
// (quoteReserve / 10^quoteDecimals) / (baseReserve / 10^baseDecimals).
func (s *PoolSource) calculatePrice(reserve0, reserve1 *big.Int) (decimal.Decimal, error) {
	if reserve0.Sign() == 0 || reserve1.Sign() == 0 {
		return decimal.Zero, fmt.Errorf("%w", sources.ErrZeroLiquidity)
	}

	// #nosec G115 -- decimals validated in NewPoolSourceWithCaller
	amount0 := decimal.NewFromBigInt(reserve0, -int32(s.cfg.Decimals0))
	// #nosec G115
	amount1 := decimal.NewFromBigInt(reserve1, -int32(s.cfg.Decimals1))

	if s.cfg.BaseIsToken0 {
		return amount1.Div(amount0), nil
	}
	return amount0.Div(amount1), nil
}
