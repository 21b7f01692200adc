package snapdelta

import (
	"bytes"
	"context"
	"errors"
	"testing"

	snaperrors "github.com/renlow/snapdelta/errors"
	"github.com/renlow/snapdelta/wire"
)

func TestCompressBatchRoundTrip(t *testing.T) {
	rng := newTestRNG(t)
	const entities, blockSize = 200, 8

	previous := make([][]byte, entities)
	current := make([][]byte, entities)
	for i := range previous {
		// Mixed sizes, densities and localities across the batch.
		length := 1 + rng.IntN(512)
		previous[i], current[i] = randomSnapshotPair(rng, length, rng.IntN(length+1), rng.IntN(2) == 0)
	}

	for _, workers := range []int{0, 1, 4} {
		patches, err := CompressBatch(context.Background(), previous, current, blockSize, workers)
		if err != nil {
			t.Fatalf("workers=%d: CompressBatch: %v", workers, err)
		}
		if len(patches) != entities {
			t.Fatalf("workers=%d: %d patches, want %d", workers, len(patches), entities)
		}
		for i, p := range patches {
			out := wire.NewWriter(make([]byte, len(previous[i])))
			if !p.Apply(previous[i], blockSize, out) {
				t.Fatalf("workers=%d entity %d: Apply failed (codec %v)", workers, i, p.Codec)
			}
			if !bytes.Equal(out.Bytes(), current[i]) {
				t.Fatalf("workers=%d entity %d: round trip mismatch", workers, i)
			}
		}
	}
}

// TestCompressBatchPicksSmaller: per entity the winning patch must not
// be larger than either codec's own output.
func TestCompressBatchPicksSmaller(t *testing.T) {
	rng := newTestRNG(t)
	const blockSize = 16

	previous := make([][]byte, 50)
	current := make([][]byte, 50)
	for i := range previous {
		previous[i], current[i] = randomSnapshotPair(rng, 1024, 1+rng.IntN(64), i%2 == 0)
	}

	patches, err := CompressBatch(context.Background(), previous, current, blockSize, 2)
	if err != nil {
		t.Fatalf("CompressBatch: %v", err)
	}
	for i, p := range patches {
		block := wire.NewWriter(make([]byte, MaxBlockPatchSize(len(previous[i]), blockSize)))
		mustWrite(CompressBlocks(previous[i], current[i], blockSize, block))
		tree := wire.NewWriter(make([]byte, MaxTreePatchSize(len(previous[i]))))
		mustWrite(CompressTree(previous[i], current[i], tree))

		if want := min(block.Position(), tree.Position()); len(p.Data) != want {
			t.Errorf("entity %d: winner %d bytes (codec %v), want %d (block %d, tree %d)",
				i, len(p.Data), p.Codec, want, block.Position(), tree.Position())
		}
	}
}

func TestCompressBatchValidation(t *testing.T) {
	ctx := context.Background()
	if _, err := CompressBatch(ctx, make([][]byte, 2), make([][]byte, 3), 8, 1); !errors.Is(err, snaperrors.ErrBatchSizeMismatch) {
		t.Errorf("size mismatch: err = %v, want ErrBatchSizeMismatch", err)
	}
	if _, err := CompressBatch(ctx, nil, nil, 0, 1); !errors.Is(err, snaperrors.ErrInvalidBlockSize) {
		t.Errorf("zero block size: err = %v, want ErrInvalidBlockSize", err)
	}
	patches, err := CompressBatch(ctx, nil, nil, 8, 4)
	if err != nil || len(patches) != 0 {
		t.Errorf("empty batch = %d patches, %v", len(patches), err)
	}
}

func TestCompressBatchCancelled(t *testing.T) {
	rng := newTestRNG(t)
	const entities = 500

	previous := make([][]byte, entities)
	current := make([][]byte, entities)
	for i := range previous {
		previous[i], current[i] = randomSnapshotPair(rng, 256, 32, false)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := CompressBatch(ctx, previous, current, 8, 2); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled batch: err = %v, want context.Canceled", err)
	}
}
