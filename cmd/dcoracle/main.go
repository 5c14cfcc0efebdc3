package main

import (
	"os"

	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/cmd/dcoracle/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
