// Command harvester crawls, enriches and indexes technology articles,
// and serves embedding-based search over the result.
package main

import (
	"github.com/insight-labs/harvester/internal/adapters/driving/cli"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
