// Command albumctl benchmarks store layouts, seeds record sinks, and runs
// one-off lookups against a freshly built store.
package main

import (
	"os"

	"github.com/Adithya-Monish-Kumar-K/albumdb/cmd/albumctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
