// Command mapbuild parses an OSM PBF extract into Lanes/Roads and
// reports assembly statistics.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"roadmap/pkg/feed/osmfeed"
	"roadmap/pkg/mapbuild"
)

func main() {
	input := flag.String("input", "", "Path to .osm.pbf file")
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
	defer f.Close()

	log.Info("parsing OSM extract", zap.String("path", *input))
	osmFeed, err := osmfeed.Parse(context.Background(), f)
	if err != nil {
		log.Fatal("failed to parse OSM data", zap.Error(err))
	}

	m, err := mapbuild.FromFeed(osmFeed, log)
	if err != nil {
		log.Fatal("failed to assemble map", zap.Error(err))
	}

	log.Info("build complete",
		zap.Int("lanes", len(m.Lanes)),
		zap.Int("roads", len(m.Roads)),
		zap.Duration("elapsed", time.Since(start)),
	)
}
