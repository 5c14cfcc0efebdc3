package dexagg

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/server/sources"
)

const (
	dexscreenerBaseURL     = "https://api.dexscreener.com"
	dexscreenerMinInterval = time.Second // public limit is 300 req/min
)

// DexScreenerSource is the primary external aggregator. It reads
// pairs[].priceUsd from the pair endpoint.
type DexScreenerSource struct {
	*jsonPriceSource
}

// NewDexScreenerSource creates the source from registry config:
//
//	base_url: "https://api.dexscreener.com"
//	chain: "dogechain"
//	pair_address: "0x..."
//	timeout: "10s"
//	min_interval: "1s"
func NewDexScreenerSource(config map[string]interface{}) (sources.Source, error) {
	chain := sources.GetString(config, "chain", "")
	if chain == "" {
		return nil, fmt.Errorf("%w", ErrChainRequired)
	}
	pair := sources.GetString(config, "pair_address", "")
	if pair == "" {
		return nil, fmt.Errorf("%w: pair_address", ErrAddressRequired)
	}
	baseURL := strings.TrimRight(sources.GetString(config, "base_url", dexscreenerBaseURL), "/")

	endpoint := fmt.Sprintf("%s/latest/dex/pairs/%s/%s", baseURL, url.PathEscape(chain), url.PathEscape(pair))

	base := sources.NewBaseSource("dexscreener", sources.SourceTypeDexAgg, sources.GetLoggerFromConfig(config))
	inner, err := newJSONPriceSource(base, endpoint, "pairs", "priceUsd", config, dexscreenerMinInterval)
	if err != nil {
		return nil, err
	}

	return &DexScreenerSource{jsonPriceSource: inner}, nil
}
