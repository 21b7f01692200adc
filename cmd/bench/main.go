// Bench measures patch sizes and compression throughput for the block
// and tree delta codecs across change densities.
//
// Usage:
//
//	go run ./cmd/bench -size 1024 -pairs 10000 -density 0.05 -blocksize 16 -workers 4
//
// Flags:
//
//	-size       Snapshot size in bytes (default: 1024)
//	-pairs      Number of snapshot pairs (default: 10,000)
//	-density    Fraction of bytes changed per snapshot (default: 0.05)
//	-scattered  Scatter changes uniformly instead of one contiguous span (default: true)
//	-blocksize  Block codec block size (default: 16)
//	-workers    Workers for the batch compression pass (default: 1)
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/renlow/snapdelta"
	"github.com/renlow/snapdelta/wire"
)

func main() {
	sizeFlag := flag.Int("size", 1024, "snapshot size in bytes")
	pairsFlag := flag.Int("pairs", 10_000, "number of snapshot pairs")
	densityFlag := flag.Float64("density", 0.05, "fraction of bytes changed")
	scatteredFlag := flag.Bool("scattered", true, "scatter changes uniformly (false = one contiguous span)")
	blockSizeFlag := flag.Int("blocksize", 16, "block codec block size")
	workersFlag := flag.Int("workers", 1, "workers for the batch pass")
	flag.Parse()

	size := *sizeFlag
	pairs := *pairsFlag
	blockSize := *blockSizeFlag
	if size < 1 || pairs < 1 || blockSize < 1 {
		fmt.Fprintln(os.Stderr, "size, pairs and blocksize must be positive")
		os.Exit(1)
	}
	changed := int(*densityFlag * float64(size))

	fmt.Printf("Generating %d pairs of %d-byte snapshots (%d changed bytes each)...\n",
		pairs, size, changed)
	rng := rand.New(rand.NewPCG(0x736e6170, 0x64656c74))
	previous := make([][]byte, pairs)
	current := make([][]byte, pairs)
	for i := range previous {
		prev := make([]byte, size)
		for j := range prev {
			prev[j] = byte(rng.Uint32())
		}
		curr := append([]byte(nil), prev...)
		if *scatteredFlag {
			for range changed {
				curr[rng.IntN(size)] ^= byte(1 + rng.Uint32()%255)
			}
		} else if changed > 0 {
			start := rng.IntN(size - changed + 1)
			for j := start; j < start+changed; j++ {
				curr[j] ^= byte(1 + rng.Uint32()%255)
			}
		}
		previous[i] = prev
		current[i] = curr
	}

	blockScratch := make([]byte, snapdelta.MaxBlockPatchSize(size, blockSize))
	treeScratch := make([]byte, snapdelta.MaxTreePatchSize(size))
	out := make([]byte, size)

	runCodec := func(name string, compress func(prev, curr []byte, patch *wire.Writer) bool,
		decompress func(prev []byte, patch *wire.Reader, out *wire.Writer) bool, scratch []byte) {
		var patchBytes int64
		start := time.Now()
		for i := range previous {
			w := wire.NewWriter(scratch)
			if !compress(previous[i], current[i], w) {
				fmt.Fprintf(os.Stderr, "%s: compression failed on pair %d\n", name, i)
				os.Exit(1)
			}
			patchBytes += int64(w.Position())
		}
		compressDur := time.Since(start)

		// One decompression pass to sanity-check round-trips and time the
		// receive side.
		start = time.Now()
		for i := range previous {
			w := wire.NewWriter(scratch)
			compress(previous[i], current[i], w)
			ow := wire.NewWriter(out)
			if !decompress(previous[i], wire.NewReader(w.Bytes()), ow) {
				fmt.Fprintf(os.Stderr, "%s: decompression failed on pair %d\n", name, i)
				os.Exit(1)
			}
			if snapdelta.Digest64(ow.Bytes()) != snapdelta.Digest64(current[i]) {
				fmt.Fprintf(os.Stderr, "%s: round-trip mismatch on pair %d\n", name, i)
				os.Exit(1)
			}
		}
		roundTripDur := time.Since(start)

		totalIn := int64(pairs) * int64(size)
		fmt.Printf("%-6s avg patch %7.1f B (%.2f%% of snapshot)  compress %7.1f MB/s  round-trip %7.1f MB/s\n",
			name,
			float64(patchBytes)/float64(pairs),
			100*float64(patchBytes)/float64(totalIn),
			float64(totalIn)/compressDur.Seconds()/1e6,
			float64(totalIn)/roundTripDur.Seconds()/1e6)
	}

	runCodec("block",
		func(prev, curr []byte, patch *wire.Writer) bool {
			return snapdelta.CompressBlocks(prev, curr, blockSize, patch)
		},
		func(prev []byte, patch *wire.Reader, out *wire.Writer) bool {
			return snapdelta.DecompressBlocks(prev, patch, blockSize, out)
		},
		blockScratch)
	runCodec("tree", snapdelta.CompressTree, snapdelta.DecompressTree, treeScratch)

	fmt.Printf("Batch pass with %d workers...\n", *workersFlag)
	start := time.Now()
	patches, err := snapdelta.CompressBatch(context.Background(), previous, current, blockSize, *workersFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "batch: %v\n", err)
		os.Exit(1)
	}
	dur := time.Since(start)

	var batchBytes int64
	codecWins := map[snapdelta.Codec]int{}
	for _, p := range patches {
		batchBytes += int64(len(p.Data))
		codecWins[p.Codec]++
	}
	fmt.Printf("batch  avg patch %7.1f B  %7.1f MB/s  (block won %d, tree won %d)\n",
		float64(batchBytes)/float64(pairs),
		float64(int64(pairs)*int64(size))/dur.Seconds()/1e6,
		codecWins[snapdelta.CodecBlock], codecWins[snapdelta.CodecTree])
}
