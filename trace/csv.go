// Package trace reads the CSV request-trace and cache-image formats the
// upstream gcache library's test harness consumes, and writes the CSV
// perf-record and MRC outputs it produces, driving a ghostkv.Sampled
// cache the same way the C++ test_trace tool does.
package trace

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ghostmrc/gcache/ghost"
	"github.com/ghostmrc/gcache/ghostkv"
	"github.com/ghostmrc/gcache/hash"
)

// Request is one row of a request-trace CSV: timestamp and value size
// are carried through for callers that want them, but are not used by
// the ghost cache simulation itself.
type Request struct {
	Timestamp string
	Op        string
	Key       string
	ValSize   int64
}

// Mode maps a request's operation name to the ghost access mode the
// upstream harness uses: "get" counts as a real access, anything else
// (puts, deletes, etc.) only keeps the simulated LRU order current
// without touching the reuse-distance histogram.
func (r Request) Mode() ghost.Mode {
	if r.Op == "get" {
		return ghost.Default
	}
	return ghost.Noop
}

// ReadRequests parses a 4-column request trace (timestamp, op, key,
// val_size), skipping the header row and any row that does not have
// exactly 4 columns.
func ReadRequests(r io.Reader) ([]Request, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("trace: read request trace: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	reqs := make([]Request, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) != 4 {
			continue
		}
		valSize, err := strconv.ParseInt(row[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("trace: parse val_size %q: %w", row[3], err)
		}
		reqs = append(reqs, Request{
			Timestamp: row[0],
			Op:        row[1],
			Key:       row[2],
			ValSize:   valSize,
		})
	}
	return reqs, nil
}

// ReadCacheImage parses a cache-image CSV: only the first column of
// each non-header row is used, as the initial resident key set to
// replay (with ghost.Noop) before the main trace begins.
func ReadCacheImage(r io.Reader) ([]string, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("trace: read cache image: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 1 {
			continue
		}
		keys = append(keys, row[0])
	}
	return keys, nil
}

// Simulate replays an initial cache image (Noop) followed by a request
// trace against c, hashing string keys with hash.String. val_size is
// passed through to c.Access unused beyond its KVSize bookkeeping.
func Simulate(c *ghostkv.Cache, image []string, requests []Request) {
	for _, key := range image {
		c.Access(hash.String(key), 0, ghost.Noop)
	}
	for _, req := range requests {
		c.Access(hash.String(req.Key), uint32(req.ValSize), req.Mode())
	}
}

// PerfRecord is one row of the perf-record output: a workload tag and
// its parameters, the elapsed wall time of each of the three simulation
// variants, and the sampled MRC's error against the unsampled one.
type PerfRecord struct {
	Workload       string
	Tick           uint32
	MinSize        uint32
	MaxSize        uint32
	SampleShift    uint32
	BaselineMicros int64
	GhostMicros    int64
	SampledMicros  int64
	MeanAbsError   float64
	MaxAbsError    float64
}

var perfHeader = []string{
	"workload", "tick", "min_size", "max_size", "sample_shift",
	"baseline_us", "ghost_us", "sampled_us", "mean_abs_error", "max_abs_error",
}

// WritePerfRecord writes a single-row perf-record CSV with a header.
func WritePerfRecord(w io.Writer, rec PerfRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(perfHeader); err != nil {
		return err
	}
	row := []string{
		rec.Workload,
		strconv.FormatUint(uint64(rec.Tick), 10),
		strconv.FormatUint(uint64(rec.MinSize), 10),
		strconv.FormatUint(uint64(rec.MaxSize), 10),
		strconv.FormatUint(uint64(rec.SampleShift), 10),
		strconv.FormatInt(rec.BaselineMicros, 10),
		strconv.FormatInt(rec.GhostMicros, 10),
		strconv.FormatInt(rec.SampledMicros, 10),
		strconv.FormatFloat(rec.MeanAbsError, 'f', -1, 64),
		strconv.FormatFloat(rec.MaxAbsError, 'f', -1, 64),
	}
	if err := cw.Write(row); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// MRCPoint is one row of the MRC output: an entry-count candidate size
// and the hit rate the ghost cache reported for it.
type MRCPoint struct {
	NumBlocks uint32
	HitRate   float64
}

// WriteMRC writes the two-column num_blocks,hit_rate CSV, one row per
// point, with a header row.
func WriteMRC(w io.Writer, points []MRCPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"num_blocks", "hit_rate"}); err != nil {
		return err
	}
	for _, p := range points {
		row := []string{
			strconv.FormatUint(uint64(p.NumBlocks), 10),
			strconv.FormatFloat(p.HitRate, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// MeanMaxAbsError computes the mean and maximum absolute difference
// between two MRCs sampled at the same candidate sizes, used to compare
// a sampled ghost cache's curve against the unsampled ground truth.
func MeanMaxAbsError(sampled, groundTruth []float64) (mean, max float64) {
	if len(sampled) != len(groundTruth) || len(sampled) == 0 {
		return 0, 0
	}
	var sum float64
	for i := range sampled {
		d := sampled[i] - groundTruth[i]
		if d < 0 {
			d = -d
		}
		sum += d
		if d > max {
			max = d
		}
	}
	return sum / float64(len(sampled)), max
}
