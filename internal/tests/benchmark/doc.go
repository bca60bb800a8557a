// Package benchmark provides performance benchmarks for chgrid.
//
// Run benchmarks with:
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
//
// Contention benchmarks scale with GOMAXPROCS:
//
//	go test -bench=BenchmarkContended -cpu=1,2,4,8 ./internal/tests/benchmark/...
//
// Compare results:
//
//	benchstat old.txt new.txt
package benchmark
