package snapdelta

import (
	"context"

	"golang.org/x/sync/errgroup"

	snaperrors "github.com/renlow/snapdelta/errors"
	"github.com/renlow/snapdelta/wire"
)

// workChanBufferMultiplier is the multiplier for the work channel buffer
// size relative to the worker count.
const workChanBufferMultiplier = 2

// Patch is one entity's compressed snapshot delta, together with the
// codec that produced it.
type Patch struct {
	Codec Codec
	Data  []byte
}

// Apply reconstructs the current snapshot from previous and the patch.
// blockSize must match the value used at compression time; it is ignored
// for tree patches.
func (p Patch) Apply(previous []byte, blockSize int, out *wire.Writer) bool {
	r := wire.NewReader(p.Data)
	switch p.Codec {
	case CodecBlock:
		return DecompressBlocks(previous, r, blockSize, out)
	case CodecTree:
		return DecompressTree(previous, r, out)
	default:
		return false
	}
}

// CompressBatch compresses many entity snapshot pairs concurrently,
// producing one patch per entity. For each pair both codecs are run and
// the smaller patch wins, the way a replication server picks the
// cheapest encoding per entity per tick.
//
// previous and current must have the same number of entries and each
// pair must have equal lengths (the per-pair length precondition of the
// codecs; violations panic). workers <= 0 means one worker. Each worker
// owns its scratch buffers, so entries may be compressed in any order;
// results are returned in input order.
func CompressBatch(ctx context.Context, previous, current [][]byte, blockSize, workers int) ([]Patch, error) {
	if len(previous) != len(current) {
		return nil, snaperrors.ErrBatchSizeMismatch
	}
	if blockSize < 1 {
		return nil, snaperrors.ErrInvalidBlockSize
	}
	if workers < 1 {
		workers = 1
	}

	maxLen := 0
	for _, snapshot := range previous {
		maxLen = max(maxLen, len(snapshot))
	}
	scratchSize := max(MaxBlockPatchSize(maxLen, blockSize), MaxTreePatchSize(maxLen))

	results := make([]Patch, len(previous))
	work := make(chan int, workers*workChanBufferMultiplier)

	g, ctx := errgroup.WithContext(ctx)
	for range workers {
		g.Go(func() error {
			blockScratch := make([]byte, scratchSize)
			treeScratch := make([]byte, scratchSize)
			for i := range work {
				results[i] = compressPair(previous[i], current[i], blockSize, blockScratch, treeScratch)
			}
			return nil
		})
	}

	// Feed indexes; bail out if a worker's context is cancelled.
	var feedErr error
feed:
	for i := range previous {
		select {
		case work <- i:
		case <-ctx.Done():
			feedErr = ctx.Err()
			break feed
		}
	}
	close(work)

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if feedErr != nil {
		return nil, feedErr
	}
	return results, nil
}

// compressPair runs both codecs over one snapshot pair and keeps the
// smaller patch. Scratch buffers are sized to the batch-wide maximum, so
// compression cannot fail on capacity.
func compressPair(previous, current []byte, blockSize int, blockScratch, treeScratch []byte) Patch {
	blockPatch := wire.NewWriter(blockScratch)
	mustWrite(CompressBlocks(previous, current, blockSize, blockPatch))
	treePatch := wire.NewWriter(treeScratch)
	mustWrite(CompressTree(previous, current, treePatch))

	winner := blockPatch
	codec := CodecBlock
	if treePatch.Position() < blockPatch.Position() {
		winner = treePatch
		codec = CodecTree
	}
	data := make([]byte, winner.Position())
	if winner.CopyTo(data) != winner.Position() {
		panic("snapdelta: patch copy fell short of written length")
	}
	return Patch{Codec: codec, Data: data}
}
