package evm

import (
	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/server/sources"
)

func init() {
	sources.Register("evm.pool", NewPoolSource)
}
