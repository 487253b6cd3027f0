// Command plenty is the UCI front end of the engine.
package main

import (
	"flag"
	"log"
	"os"
	"runtime/pprof"

	"github.com/plentychess/plenty/internal/engine"
	"github.com/plentychess/plenty/internal/storage"
	"github.com/plentychess/plenty/internal/uci"
)

// defaultNetFile is the weights blob probed in the standard locations.
const defaultNetFile = "plenty.net"

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	hashMB     = flag.Int("hash", 0, "transposition table size in MB (overrides saved preference)")
	evalFile   = flag.String("evalfile", "", "weights blob path (overrides saved preference)")
)

func main() {
	flag.Parse()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	// Restore persisted preferences; the engine runs fine without them.
	store, err := storage.OpenDefault()
	if err != nil {
		log.Printf("[Main] preferences unavailable: %v", err)
		store = nil
	} else {
		defer store.Close()
	}

	opts := storage.DefaultOptions()
	if store != nil {
		if loaded, err := store.LoadOptions(); err == nil {
			opts = loaded
		}
	}
	if *hashMB > 0 {
		opts.HashMB = *hashMB
	}
	if *evalFile != "" {
		opts.EvalFile = *evalFile
		opts.UseNNUE = true
	}

	eng := engine.NewEngine(opts.HashMB)

	if opts.UseNNUE {
		loadNetwork(eng, opts.EvalFile)
	}

	protocol := uci.New(eng, store)
	protocol.Run()
}

// loadNetwork tries the configured path, then the conventional
// locations. Failure leaves the classical evaluation in place.
func loadNetwork(eng *engine.Engine, path string) {
	candidates := []string{}
	if path != "" {
		candidates = append(candidates, path)
	}
	candidates = append(candidates, storage.WeightsSearchPaths(defaultNetFile)...)

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		if err := eng.Evaluator().LoadNetwork(candidate); err == nil {
			return
		}
	}
	log.Printf("[Main] no usable network found, using classical evaluation")
}
