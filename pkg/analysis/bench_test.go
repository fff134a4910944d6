package analysis_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/yaklabco/tethls/pkg/analysis"
	"github.com/yaklabco/tethls/pkg/source"
)

func BenchmarkResolveHit(b *testing.B) {
	cache := analysis.New()
	unit := source.NewUnit("/ws/a.teth", "let a = 1")
	var calls atomic.Int32
	compute := countingCompute(&calls)
	ctx := context.Background()

	if _, err := cache.Resolve(ctx, unit, compute); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := cache.Resolve(ctx, unit, compute); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
