package dexagg

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/server/sources"
)

const (
	geckoterminalBaseURL     = "https://api.geckoterminal.com/api/v2"
	geckoterminalMinInterval = 2 * time.Second // public limit is 30 req/min
)

// GeckoTerminalSource is the secondary external aggregator. It reads
// data[].attributes.base_token_price_usd from the token pools endpoint.
type GeckoTerminalSource struct {
	*jsonPriceSource
}

// NewGeckoTerminalSource creates the source from registry config:
//
//	base_url: "https://api.geckoterminal.com/api/v2"
//	network: "dogechain"
//	token_address: "0x..."
//	timeout: "10s"
//	min_interval: "2s"
func NewGeckoTerminalSource(config map[string]interface{}) (sources.Source, error) {
	network := sources.GetString(config, "network", "")
	if network == "" {
		return nil, fmt.Errorf("%w", ErrChainRequired)
	}
	token := sources.GetString(config, "token_address", "")
	if token == "" {
		return nil, fmt.Errorf("%w: token_address", ErrAddressRequired)
	}
	baseURL := strings.TrimRight(sources.GetString(config, "base_url", geckoterminalBaseURL), "/")

	endpoint := fmt.Sprintf("%s/networks/%s/tokens/%s/pools", baseURL, url.PathEscape(network), url.PathEscape(token))

	base := sources.NewBaseSource("geckoterminal", sources.SourceTypeDexAgg, sources.GetLoggerFromConfig(config))
	inner, err := newJSONPriceSource(base, endpoint, "data", "attributes.base_token_price_usd", config, geckoterminalMinInterval)
	if err != nil {
		return nil, err
	}

	return &GeckoTerminalSource{jsonPriceSource: inner}, nil
}
