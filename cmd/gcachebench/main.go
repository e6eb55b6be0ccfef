// Command gcachebench drives the ghost cache engine against a synthetic
// workload and reports a miss-ratio curve, timing the full and sampled
// ghost caches against a baseline of plain workload generation.
package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ghostmrc/gcache/ghost"
	"github.com/ghostmrc/gcache/hash"
	"github.com/ghostmrc/gcache/trace"
	"github.com/ghostmrc/gcache/workload"
)

type config struct {
	workloadName string
	resultDir    string
	numBlocks    uint64
	numOps       uint64
	zipfTheta    float64
	cacheTick    uint32
	cacheMin     uint32
	cacheMax     uint32
	noGhost      bool
	noSampled    bool
	randSeed     int64
	sampleShift  uint32
}

func main() {
	cfg := &config{}
	root := &cobra.Command{
		Use:   "gcachebench",
		Short: "Benchmark the ghost cache miss-ratio curve engine against a synthetic workload",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg)
		},
	}
	flags := root.Flags()
	flags.StringVar(&cfg.workloadName, "workload", "zipf", "workload generator: seq | unif | zipf")
	flags.StringVar(&cfg.resultDir, "result_dir", ".", "directory to write perf_record.csv and mrc.csv into")
	flags.Uint64Var(&cfg.numBlocks, "num_blocks", 1<<20, "number of distinct blocks in the key space")
	flags.Uint64Var(&cfg.numOps, "num_ops", 1<<20, "number of accesses to simulate")
	flags.Float64Var(&cfg.zipfTheta, "zipf_theta", 0.99, "Zipf skew parameter, used only when --workload=zipf")
	flags.Uint32Var(&cfg.cacheTick, "cache_tick", uint32(cfg.numBlocks/16), "candidate cache size step, in blocks")
	flags.Uint32Var(&cfg.cacheMin, "cache_min", uint32(cfg.numBlocks/16), "smallest candidate cache size, in blocks")
	flags.Uint32Var(&cfg.cacheMax, "cache_max", uint32(cfg.numBlocks), "largest candidate cache size, in blocks")
	flags.BoolVar(&cfg.noGhost, "no_ghost", false, "skip the full (unsampled) ghost cache pass")
	flags.BoolVar(&cfg.noSampled, "no_sampled", false, "skip the sampled ghost cache pass")
	flags.Int64Var(&cfg.randSeed, "rand_seed", 1, "seed for the workload generator's RNG")
	flags.Uint32Var(&cfg.sampleShift, "sample_shift", 5, "sampling shift for the sampled ghost cache pass")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "gcachebench:", err)
		os.Exit(1)
	}
}

func buildGenerator(cfg *config) workload.Generator {
	switch cfg.workloadName {
	case "seq":
		return workload.NewSeq(cfg.numBlocks)
	case "unif":
		return workload.NewUnif(cfg.numBlocks, cfg.randSeed)
	case "zipf":
		return workload.NewZipf(cfg.numBlocks, cfg.zipfTheta, cfg.randSeed)
	default:
		return nil
	}
}

func run(cfg *config) error {
	if buildGenerator(cfg) == nil {
		return fmt.Errorf("unknown --workload %q (want seq, unif, or zipf)", cfg.workloadName)
	}
	if err := os.MkdirAll(cfg.resultDir, 0o755); err != nil {
		return fmt.Errorf("create result_dir: %w", err)
	}

	keys := workload.Take(buildGenerator(cfg), int(cfg.numOps))

	baselineStart := time.Now()
	var sink uint32
	for _, k := range keys {
		sink ^= hash.Identity(uint32(k))
	}
	baselineElapsed := time.Since(baselineStart)

	rec := trace.PerfRecord{
		Workload:    cfg.workloadName,
		Tick:        cfg.cacheTick,
		MinSize:     cfg.cacheMin,
		MaxSize:     cfg.cacheMax,
		SampleShift: cfg.sampleShift,
	}
	rec.BaselineMicros = baselineElapsed.Microseconds()

	var fullPoints, sampledPoints []trace.MRCPoint
	var eg errgroup.Group

	if !cfg.noGhost {
		eg.Go(func() error {
			start := time.Now()
			c := ghost.New[uint32](cfg.cacheTick, cfg.cacheMin, cfg.cacheMax, hash.Identity)
			for _, k := range keys {
				c.Access(uint32(k), ghost.Default)
			}
			rec.GhostMicros = time.Since(start).Microseconds()
			fullPoints = curve(cfg.cacheMin, cfg.cacheMax, cfg.cacheTick, c.Stat)
			return nil
		})
	}
	if !cfg.noSampled {
		eg.Go(func() error {
			start := time.Now()
			s := ghost.NewSampled[uint32](cfg.sampleShift, cfg.cacheTick, cfg.cacheMin, cfg.cacheMax, hash.Identity)
			for _, k := range keys {
				s.Access(uint32(k), ghost.Default)
			}
			rec.SampledMicros = time.Since(start).Microseconds()
			sampledPoints = curve(cfg.cacheMin, cfg.cacheMax, cfg.cacheTick, s.Stat)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	if len(fullPoints) > 0 && len(sampledPoints) > 0 {
		full := hitRates(fullPoints)
		sampled := hitRates(sampledPoints)
		n := min(len(full), len(sampled))
		mean, max := trace.MeanMaxAbsError(sampled[:n], full[:n])
		rec.MeanAbsError, rec.MaxAbsError = mean, max
	}

	if err := writeCSV(filepath.Join(cfg.resultDir, "perf_record.csv"), func(f *os.File) error {
		return trace.WritePerfRecord(f, rec)
	}); err != nil {
		return err
	}

	mrcPoints := fullPoints
	if len(mrcPoints) == 0 {
		mrcPoints = sampledPoints
	}
	if err := writeCSV(filepath.Join(cfg.resultDir, "mrc.csv"), func(f *os.File) error {
		return trace.WriteMRC(f, mrcPoints)
	}); err != nil {
		return err
	}

	fmt.Printf("workload=%s num_ops=%d baseline=%dus ghost=%dus sampled=%dus mean_err=%.5f max_err=%.5f\n",
		cfg.workloadName, cfg.numOps, rec.BaselineMicros, rec.GhostMicros, rec.SampledMicros, rec.MeanAbsError, rec.MaxAbsError)
	return nil
}

func curve(minSize, maxSize, tick uint32, statFn func(uint32) ghost.CacheStat) []trace.MRCPoint {
	var points []trace.MRCPoint
	for s := minSize; s <= maxSize; s += tick {
		st := statFn(s)
		hr := st.HitRate()
		if math.IsNaN(hr) {
			hr = 0
		}
		points = append(points, trace.MRCPoint{NumBlocks: s, HitRate: hr})
	}
	return points
}

func hitRates(points []trace.MRCPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.HitRate
	}
	return out
}

func writeCSV(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return write(f)
}
