package dexagg

import (
	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/server/sources"
)

func init() {
	sources.Register("dexagg.dexscreener", NewDexScreenerSource)
	sources.Register("dexagg.geckoterminal", NewGeckoTerminalSource)
}
