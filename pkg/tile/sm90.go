package tile

// Sm120ConsumerSmemLimitBytes is the shared-memory capacity available to one
// kernel block on SM120-class consumer parts, which lack the larger H100
// carve-out. The Hopper-class tile tables were profiled on H100; clamping
// against this budget re-derives safe tiles for the consumer variants without
// a second profiling pass.
const Sm120ConsumerSmemLimitBytes = 101376

// DefaultSm90Limits is the solver configuration the stock "sm90" policy
// clamps against.
var DefaultSm90Limits = Limits{
	SmemBytes:  Sm120ConsumerSmemLimitBytes,
	BlockAlign: BlockDimAlign,
}

func init() {
	Register(NewSm90Policy(DefaultSm90Limits))
}

// NewSm90Policy returns the Hopper-class policy clamping against the given
// limits. The stock registration uses DefaultSm90Limits; budget-override
// configurations register replacements built here.
func NewSm90Policy(limits Limits) Policy {
	return sm90Policy{limits: limits}
}

type sm90Policy struct {
	limits Limits
}

func (sm90Policy) Name() string { return "sm90" }

func (pol sm90Policy) PlanFwd(p Problem) Config {
	return FwdSm90(p, pol.limits)
}

// FwdSm90 plans the tile configuration for the Hopper-class warp-specialized
// forward kernels.
//
// The head-dimension buckets and their base tiles approximate an offline grid
// search; EnforceSmem then shrinks each base tile to the given shared-memory
// limits. The 4-byte path returns fixed, pre-verified tiles and skips the
// solver.
func FwdSm90(p Problem, limits Limits) Config {
	headDim, headDimV := p.HeadDim, p.HeadDimV
	elementSize := p.ElementSize()
	if elementSize == 2 {
		switch {
		case headDim <= 64:
			switch headDimV {
			case 512:
				// Very wide values: keep the tile narrow, single-buffered
				// residency still dominates the budget.
				blockM, blockN := limits.EnforceSmem(64, 64, headDim, headDimV, elementSize)
				return Config{BlockM: blockM, BlockN: blockN}
			case 256:
				blockM, blockN := limits.EnforceSmem(64, 80, headDim, headDimV, elementSize)
				return Config{BlockM: blockM, BlockN: blockN, MmaPVInRegs: true, IntraWGOverlap: true}
			default:
				// 192x192 for the full-attention case; masking and non-TMA
				// paging prefer the narrower 192x128 shape.
				narrowN := p.Causal || p.Local || p.PagedKVNonTMA
				baseN := 192
				if narrowN {
					baseN = 128
				}
				blockM, blockN := limits.EnforceSmem(192, baseN, headDim, headDimV, elementSize)
				return Config{BlockM: blockM, BlockN: blockN, MmaPVInRegs: narrowN, IntraWGOverlap: true}
			}

		case headDim <= 96:
			// Large value dims inflate the footprint even at modest head
			// sizes; bias toward smaller tiles once headDimV reaches 256.
			baseN := 144
			if headDimV >= 256 {
				baseN = 96
			} else if p.Local || p.PagedKVNonTMA {
				baseN = 128
			}
			baseM := 192
			if baseN == 96 {
				baseM = 128
			}
			blockM, blockN := limits.EnforceSmem(baseM, baseN, headDim, headDimV, elementSize)
			return Config{BlockM: blockM, BlockN: blockN, IntraWGOverlap: true}

		case headDim <= 128:
			// BlockM=64 keeps the footprint inside the consumer budget while
			// leaving BlockN as wide as possible for throughput.
			baseN := 80
			if !p.PagedKVNonTMA && !p.Local && headDimV <= 128 {
				baseN = 96
			}
			blockM, blockN := limits.EnforceSmem(64, baseN, headDim, headDimV, elementSize)
			return Config{BlockM: blockM, BlockN: blockN, MmaPVInRegs: true, IntraWGOverlap: true}

		case headDim <= 192:
			baseN := 64
			if !p.PagedKVNonTMA && !p.Local && headDim <= 160 {
				baseN = 80
			}
			blockM, blockN := limits.EnforceSmem(64, baseN, headDim, headDimV, elementSize)
			return Config{BlockM: blockM, BlockN: blockN, MmaPVInRegs: true, IntraWGOverlap: true}

		default:
			// Past headDim 192 the footprint grows quickly with BlockM, so
			// stay on 64xN tiles and narrow BlockN as the head widens.
			baseN := 48
			if !p.PagedKVNonTMA && !p.Local && headDim <= 256 {
				baseN = 64
			}
			blockM, blockN := limits.EnforceSmem(64, baseN, headDim, headDimV, elementSize)
			return Config{BlockM: blockM, BlockN: blockN, MmaPVInRegs: true, IntraWGOverlap: true}
		}
	}

	// 4-byte elements: fixed tiles, verified to fit without solver help.
	switch {
	case headDim <= 64:
		return Config{BlockM: 192, BlockN: 160, MmaPVInRegs: true, IntraWGOverlap: true}
	case headDim <= 96:
		return Config{BlockM: 192, BlockN: 128, MmaPVInRegs: true, IntraWGOverlap: true}
	case headDim <= 128:
		blockN := 224
		if p.PagedKVNonTMA {
			blockN = 160
		} else if p.VColMajor || (p.Softcap && p.Local) {
			blockN = 192
		}
		return Config{BlockM: 128, BlockN: blockN, MmaPVInRegs: true, IntraWGOverlap: true}
	case headDim <= 192:
		blockN := 160
		if (p.PagedKVNonTMA || p.Softcap) && p.Local {
			blockN = 128
		}
		return Config{BlockM: 128, BlockN: blockN, MmaPVInRegs: true, IntraWGOverlap: true}
	default:
		blockN := 128
		if p.Local {
			blockN = 64
		}
		// Non-TMA paging costs registers, so give up the overlap there.
		return Config{BlockM: 128, BlockN: blockN, MmaPVInRegs: true, IntraWGOverlap: !p.PagedKVNonTMA}
	}
}
