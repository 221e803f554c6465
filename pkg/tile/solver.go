package tile

// BlockDimAlign is the granule BlockM and BlockN must stay multiples of; the
// MMA atoms require 16-aligned tile extents.
const BlockDimAlign = 16

// Limits carries the per-architecture constants the solver clamps candidate
// tiles against. Injecting them (rather than baking the budget into the
// solver) lets tests and budget-override configs exercise multiple capacities.
type Limits struct {
	// SmemBytes is the shared-memory capacity available to one kernel
	// block on the target architecture.
	SmemBytes int
	// BlockAlign is the tile-extent granule, normally BlockDimAlign.
	BlockAlign int
}

// alignFloor rounds dim down to a multiple of the alignment granule, with the
// granule itself as the floor.
func (l Limits) alignFloor(dim int) int {
	if dim < l.BlockAlign {
		dim = l.BlockAlign
	}
	dim = (dim / l.BlockAlign) * l.BlockAlign
	if dim <= 0 {
		dim = l.BlockAlign
	}
	return dim
}

// ClampBlockN shrinks blockN until the tile's estimated footprint fits the
// shared-memory budget. If the estimate already fits, blockN is returned
// unchanged. Otherwise the linear relation of the estimate is solved for
// blockN assuming the conservative double-buffered case, and the result is
// floored to the alignment granule. A zero denominator (degenerate zero head
// widths) returns blockN unchanged.
func (l Limits) ClampBlockN(blockM, blockN, headDim, headDimV, elementSize int) int {
	if SmemEstimateBytes(blockM, blockN, headDim, headDimV, elementSize) <= l.SmemBytes {
		return blockN
	}
	denom := 2 * elementSize * (headDim + headDimV)
	if denom == 0 {
		return blockN
	}
	return l.alignFloor(l.SmemBytes/denom - blockM)
}

// EnforceSmem shrinks a candidate (blockM, blockN) until its estimated
// footprint fits the shared-memory budget, or until both dimensions sit at
// the alignment floor. The descent is bounded, not a search:
//
//  1. clamp blockN for the given blockM;
//  2. if still over budget and blockM exceeds 64, drop blockM to 64 and
//     reclamp blockN;
//  3. if still over budget, solve the linear relation for the largest
//     aligned blockM that fits next to the clamped blockN, then reclamp
//     blockN once more.
//
// Dimensions are only ever decreased. The result is 16-aligned and at least
// 16 in each dimension. If even the floor tile exceeds the budget the floor
// is still returned; callers compare the final estimate against the budget
// and treat an overrun as a fatal configuration error.
func (l Limits) EnforceSmem(blockM, blockN, headDim, headDimV, elementSize int) (int, int) {
	blockN = l.ClampBlockN(blockM, blockN, headDim, headDimV, elementSize)
	usage := SmemEstimateBytes(blockM, blockN, headDim, headDimV, elementSize)
	if usage > l.SmemBytes && blockM > 64 {
		blockM = 64
		blockN = l.ClampBlockN(blockM, blockN, headDim, headDimV, elementSize)
		usage = SmemEstimateBytes(blockM, blockN, headDim, headDimV, elementSize)
	}
	if usage > l.SmemBytes {
		denom := 2 * elementSize * (headDim + headDimV)
		if denom != 0 {
			blockM = l.alignFloor(l.SmemBytes/denom - blockN)
		}
		blockN = l.ClampBlockN(blockM, blockN, headDim, headDimV, elementSize)
	}
	return blockM, blockN
}
