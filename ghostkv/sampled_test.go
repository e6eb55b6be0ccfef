package ghostkv

import (
	"testing"

	"github.com/ghostmrc/gcache/ghost"
)

// TestSampledCacheStatCurveScalesBackUp checks that Sampled.CacheStatCurve
// scales EntryCount and ByteSize back up by 2^SampleShift, the same way
// MinCount/MaxCount/Tick already do, so callers can correlate the curve
// against real cache sizes without accounting for sampling themselves.
func TestSampledCacheStatCurveScalesBackUp(t *testing.T) {
	const shift = 2
	s := NewSampled(shift, 4<<shift, 4<<shift, 16<<shift)

	for i := uint32(0); i < 1<<10; i++ {
		s.Access(i, 5, ghost.Default)
	}

	sampledCurve := s.inner.CacheStatCurve()
	scaledCurve := s.CacheStatCurve()
	if len(sampledCurve) != len(scaledCurve) {
		t.Fatalf("got %d scaled points, want %d (same as the unscaled curve)", len(scaledCurve), len(sampledCurve))
	}
	for i := range sampledCurve {
		if got, want := scaledCurve[i].EntryCount, sampledCurve[i].EntryCount<<shift; got != want {
			t.Fatalf("point %d EntryCount = %d, want %d", i, got, want)
		}
		if got, want := scaledCurve[i].ByteSize, sampledCurve[i].ByteSize<<shift; got != want {
			t.Fatalf("point %d ByteSize = %d, want %d", i, got, want)
		}
		if scaledCurve[i].Stat != sampledCurve[i].Stat {
			t.Fatalf("point %d Stat changed by scaling: got %+v, want %+v", i, scaledCurve[i].Stat, sampledCurve[i].Stat)
		}
	}
}
