// Command mapserver parses an OSM PBF extract into a Map and serves it
// over the HTTP API in pkg/api.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"roadmap/pkg/api"
	"roadmap/pkg/feed/osmfeed"
	"roadmap/pkg/mapbuild"
)

func main() {
	input := flag.String("input", "", "Path to .osm.pbf file")
	port := flag.Int("port", 8080, "HTTP port")
	corsOrigin := flag.String("cors-origin", "", "CORS allowed origin (empty = same-origin)")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if *input == "" {
		log.Fatal("missing required flag", zap.String("flag", "-input"))
	}

	start := time.Now()

	f, err := os.Open(*input)
	if err != nil {
		log.Fatal("failed to open input file", zap.Error(err))
	}
	osmFeed, err := osmfeed.Parse(context.Background(), f)
	f.Close()
	if err != nil {
		log.Fatal("failed to parse OSM data", zap.Error(err))
	}

	m, err := mapbuild.FromFeed(osmFeed, log)
	if err != nil {
		log.Fatal("failed to assemble map", zap.Error(err))
	}

	// Reclaim memory from build-time temporaries before serving.
	runtime.GC()
	debug.FreeOSMemory()

	log.Info("ready", zap.Duration("build_time", time.Since(start)), zap.Int("lanes", len(m.Lanes)))

	addr := fmt.Sprintf(":%d", *port)
	cfg := api.DefaultConfig(addr)
	cfg.CORSOrigin = *corsOrigin

	handlers := api.NewHandlers(m, log)
	srv := api.NewServer(cfg, handlers, log)

	if err := api.ListenAndServe(srv, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
