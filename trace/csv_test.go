package trace

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ghostmrc/gcache/ghost"
	"github.com/ghostmrc/gcache/ghostkv"
)

func TestReadRequestsSkipsHeaderAndMalformedRows(t *testing.T) {
	csv := "timestamp,op,key,val_size\n" +
		"1,get,a,10\n" +
		"2,put,b,20\n" +
		"3,bad,row\n" +
		"4,get,c,30\n"
	reqs, err := ReadRequests(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ReadRequests: %v", err)
	}
	if len(reqs) != 3 {
		t.Fatalf("got %d requests, want 3 (malformed row skipped)", len(reqs))
	}
	if reqs[0].Op != "get" || reqs[0].Mode() != ghost.Default {
		t.Fatalf("get op should map to ghost.Default")
	}
	if reqs[1].Op != "put" || reqs[1].Mode() != ghost.Noop {
		t.Fatalf("non-get op should map to ghost.Noop")
	}
}

func TestReadCacheImageUsesOnlyFirstColumn(t *testing.T) {
	csv := "key,extra\na,1\nb,2\nc,3\n"
	keys, err := ReadCacheImage(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ReadCacheImage: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(keys) != len(want) {
		t.Fatalf("got %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("got %v, want %v", keys, want)
		}
	}
}

func TestSimulateReplaysImageThenTrace(t *testing.T) {
	c := ghostkv.New(1, 3, 6)
	image := []string{"a", "b", "c"}
	requests := []Request{
		{Op: "get", Key: "a", ValSize: 5},
		{Op: "get", Key: "d", ValSize: 5},
		{Op: "put", Key: "e", ValSize: 5},
	}
	Simulate(c, image, requests)

	s := c.Stat(c.MinCount())
	if s.AccessCount() != 2 {
		t.Fatalf("AccessCount() = %d, want 2 (image replay is Noop, put is Noop)", s.AccessCount())
	}
}

func TestWritePerfRecordRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	rec := PerfRecord{
		Workload: "zipf", Tick: 100, MinSize: 100, MaxSize: 1000, SampleShift: 5,
		BaselineMicros: 1000, GhostMicros: 1200, SampledMicros: 300,
		MeanAbsError: 0.01, MaxAbsError: 0.05,
	}
	if err := WritePerfRecord(&buf, rec); err != nil {
		t.Fatalf("WritePerfRecord: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "zipf") || !strings.Contains(out, "0.01") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestWriteMRCProducesOneRowPerPoint(t *testing.T) {
	var buf bytes.Buffer
	points := []MRCPoint{{NumBlocks: 100, HitRate: 0.1}, {NumBlocks: 200, HitRate: 0.4}}
	if err := WriteMRC(&buf, points); err != nil {
		t.Fatalf("WriteMRC: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3 (header + 2 rows)", len(lines))
	}
}

func TestMeanMaxAbsError(t *testing.T) {
	sampled := []float64{0.1, 0.5, 0.9}
	truth := []float64{0.12, 0.45, 0.88}
	mean, max := MeanMaxAbsError(sampled, truth)
	if mean <= 0 || max <= 0 {
		t.Fatalf("mean=%v max=%v, want both > 0", mean, max)
	}
	if max < mean {
		t.Fatalf("max (%v) should be >= mean (%v)", max, mean)
	}
}
