package evm

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/logging"
	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/server/sources"
)

var testPair = common.HexToAddress("0x1111111111111111111111111111111111111111")

type stubCaller struct {
	result []byte
	err    error
	calls  int
	lastTo *common.Address
}

func (s *stubCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	s.calls++
	s.lastTo = msg.To
	return s.result, s.err
}

func packReserves(t *testing.T, r0, r1 *big.Int) []byte {
	t.Helper()

	parsed, err := abi.JSON(strings.NewReader(pairABIJSON))
	require.NoError(t, err)

	out, err := parsed.Methods["getReserves"].Outputs.Pack(r0, r1, uint32(1700000000))
	require.NoError(t, err)
	return out
}

func pow10(n int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil)
}

func TestPoolSource_Fetch(t *testing.T) {
	// 1,000,000 DC (18 decimals) against 10 USDC (6 decimals)
	dcReserve := new(big.Int).Mul(big.NewInt(1_000_000), pow10(18))
	usdReserve := new(big.Int).Mul(big.NewInt(10), pow10(6))

	tests := []struct {
		name         string
		baseIsToken0 bool
		r0, r1       *big.Int
		d0, d1       int
	}{
		{name: "dc is token0", baseIsToken0: true, r0: dcReserve, r1: usdReserve, d0: 18, d1: 6},
		{name: "dc is token1", baseIsToken0: false, r0: usdReserve, r1: dcReserve, d0: 6, d1: 18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller := &stubCaller{result: packReserves(t, tt.r0, tt.r1)}
			src, err := NewPoolSourceWithCaller(caller, PoolConfig{
				PairAddress:  testPair,
				BaseIsToken0: tt.baseIsToken0,
				Decimals0:    tt.d0,
				Decimals1:    tt.d1,
			}, logging.NewNoopLogger())
			require.NoError(t, err)

			price, err := src.Fetch(context.Background())
			require.NoError(t, err)
			assert.InDelta(t, 0.00001, price, 1e-15)
			assert.Equal(t, 1, caller.calls)
			require.NotNil(t, caller.lastTo)
			assert.Equal(t, testPair, *caller.lastTo)
			assert.True(t, src.IsHealthy())
			assert.Equal(t, "pool", src.Name())
			assert.Equal(t, sources.SourceTypeEVM, src.Type())
		})
	}
}

func TestPoolSource_FetchErrors(t *testing.T) {
	t.Run("rpc failure", func(t *testing.T) {
		caller := &stubCaller{err: errors.New("connection refused")}
		src, err := NewPoolSourceWithCaller(caller, PoolConfig{PairAddress: testPair, BaseIsToken0: true, Decimals0: 18, Decimals1: 18}, nil)
		require.NoError(t, err)

		price, err := src.Fetch(context.Background())
		require.Error(t, err)
		assert.Zero(t, price)
		assert.False(t, src.IsHealthy())
		assert.Contains(t, err.Error(), "getReserves")
	})

	t.Run("zero liquidity", func(t *testing.T) {
		caller := &stubCaller{result: packReserves(t, big.NewInt(0), big.NewInt(5))}
		src, err := NewPoolSourceWithCaller(caller, PoolConfig{PairAddress: testPair, BaseIsToken0: true, Decimals0: 18, Decimals1: 18}, nil)
		require.NoError(t, err)

		_, err = src.Fetch(context.Background())
		assert.ErrorIs(t, err, sources.ErrZeroLiquidity)
	})

	t.Run("malformed return data", func(t *testing.T) {
		caller := &stubCaller{result: []byte{0x01, 0x02}}
		src, err := NewPoolSourceWithCaller(caller, PoolConfig{PairAddress: testPair, BaseIsToken0: true, Decimals0: 18, Decimals1: 18}, nil)
		require.NoError(t, err)

		_, err = src.Fetch(context.Background())
		assert.ErrorIs(t, err, sources.ErrInvalidPoolResponse)
	})
}

func TestNewPoolSource_Config(t *testing.T) {
	tests := []struct {
		name    string
		config  map[string]interface{}
		wantErr error
	}{
		{
			name:    "missing rpc url",
			config:  map[string]interface{}{"pair_address": testPair.Hex()},
			wantErr: ErrRPCURLRequired,
		},
		{
			name:    "missing pair",
			config:  map[string]interface{}{"rpc_url": "http://127.0.0.1:8545"},
			wantErr: ErrPairAddressRequired,
		},
		{
			name:    "bad pair",
			config:  map[string]interface{}{"rpc_url": "http://127.0.0.1:8545", "pair_address": "0xnothex"},
			wantErr: ErrInvalidPairAddress,
		},
		{
			name: "bad decimals",
			config: map[string]interface{}{
				"rpc_url":      "http://127.0.0.1:8545",
				"pair_address": testPair.Hex(),
				"decimals0":    200,
			},
			wantErr: ErrInvalidDecimals,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPoolSource(tt.config)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewPoolSource_Registered(t *testing.T) {
	src, err := sources.Create("evm", "pool", map[string]interface{}{
		"rpc_url":      "http://127.0.0.1:8545",
		"pair_address": testPair.Hex(),
		"decimals1":    6,
	})
	require.NoError(t, err)
	defer src.(*PoolSource).Close()

	pool := src.(*PoolSource)
	assert.True(t, pool.cfg.BaseIsToken0)
	assert.Equal(t, 18, pool.cfg.Decimals0)
	assert.Equal(t, 6, pool.cfg.Decimals1)
}
