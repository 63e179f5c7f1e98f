// bench-checkpoint measures checkpoint save/load cost and on-disk size for a
// synthetic accumulator at a configurable scale, across the available codecs.
//
// Usage:
//
//	go run ./scripts/bench-checkpoint --assets 500000 --timeseries 100000 \
//	  --dir /tmp/dqaudit-bench
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dqaudit/dqaudit/internal/accumulator"
	"github.com/dqaudit/dqaudit/internal/entity"
	"github.com/dqaudit/dqaudit/pkg/checkpoint"
	"github.com/dqaudit/dqaudit/pkg/persist"
)

func main() {
	assets := flag.Int("assets", 100_000, "Number of synthetic assets")
	timeseries := flag.Int("timeseries", 20_000, "Number of synthetic time series")
	dir := flag.String("dir", "", "Working directory (default: temp dir)")
	keep := flag.Bool("keep", false, "Keep checkpoint files after the run")

	flag.Parse()

	baseDir := *dir
	if baseDir == "" {
		tmp, err := os.MkdirTemp("", "dqaudit-bench-*")
		if err != nil {
			log.Fatalf("mkdtemp: %v", err)
		}

		baseDir = tmp
	}

	acc := buildAccumulator(*assets, *timeseries)
	log.Printf("synthetic accumulator: assets=%d timeseries=%d", *assets, *timeseries)

	codecs := map[string]persist.Codec{
		"json": persist.NewJSONCodec(),
		"gob":  persist.NewGobCodec(),
		"lz4":  persist.NewLZ4Codec(),
	}

	for name, codec := range codecs {
		benchCodec(filepath.Join(baseDir, name), name, codec, acc)
	}

	if !*keep {
		if err := os.RemoveAll(baseDir); err != nil {
			log.Printf("cleanup: %v", err)
		}
	}
}

func benchCodec(dir, name string, codec persist.Codec, acc *accumulator.Accumulator) {
	mgr := checkpoint.NewManager[accumulator.Snapshot](dir, "bench", codec)

	progress := checkpoint.ShardProgress{
		ShardID:        "00",
		CompletedTypes: []string{string(entity.TypeAsset)},
	}

	saveStart := time.Now()

	err := mgr.SaveShard(progress, []string{string(entity.TypeAsset)}, acc.Snapshot)
	if err != nil {
		log.Fatalf("%s: save: %v", name, err)
	}

	saveDur := time.Since(saveStart)

	size := dirSize(mgr.Dir())

	loadStart := time.Now()

	err = mgr.LoadShard("00", func(s *accumulator.Snapshot) {
		_ = accumulator.Restore(s)
	})
	if err != nil {
		log.Fatalf("%s: load: %v", name, err)
	}

	loadDur := time.Since(loadStart)

	fmt.Printf("%-5s save=%-12s load=%-12s size=%d bytes\n", name, saveDur, loadDur, size)
}

func buildAccumulator(assets, timeseries int) *accumulator.Accumulator {
	acc := accumulator.New()

	for i := range assets {
		id := "asset-" + strconv.Itoa(i)
		parent := ""

		if i > 0 {
			parent = "asset-" + strconv.Itoa(i/2)
		}

		acc.Observe(entity.TypeAsset, id)
		acc.SetLast(accumulator.KeyAssetParent, id, parent)
	}

	for i := range timeseries {
		id := "ts-" + strconv.Itoa(i)

		acc.Observe(entity.TypeTimeSeries, id)
		acc.ObserveSum(accumulator.KeyTSSpanSum, float64(86_400_000))
		acc.ObserveSum(accumulator.KeyTSGapSum, float64(i%7)*1000)
	}

	return acc
}

func dirSize(dir string) int64 {
	var total int64

	walkErr := filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			total += info.Size()
		}

		return nil
	})
	if walkErr != nil {
		log.Printf("walk %s: %v", dir, walkErr)
	}

	return total
}
