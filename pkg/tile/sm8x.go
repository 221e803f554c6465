package tile

func init() {
	Register(NewSm8xPolicy("sm80", false))
	Register(NewSm8xPolicy("sm86", true))
	Register(NewSm8xPolicy("sm89", true))
}

// NewSm8xPolicy returns the Ampere/Ada-class policy. sm86Or89 selects the
// variant for the smaller consumer parts (sm86/sm89), which prefer 8-warp
// launches at headDim 128 and tighter tiles at the largest head sizes.
func NewSm8xPolicy(name string, sm86Or89 bool) Policy {
	return sm8xPolicy{name: name, sm86Or89: sm86Or89}
}

type sm8xPolicy struct {
	name     string
	sm86Or89 bool
}

func (pol sm8xPolicy) Name() string { return pol.name }

func (pol sm8xPolicy) PlanFwd(p Problem) Config {
	return FwdSm8x(pol.sm86Or89, p)
}

// FwdSm8x plans the tile configuration for the Ampere/Ada-class forward
// kernels. BlockM is fixed at 128; the buckets pick BlockN together with the
// launch shape (warps, pipeline stages) and whether Q stays in registers.
// These parts have enough shared memory for every listed tile, so no solver
// pass is needed.
func FwdSm8x(sm86Or89 bool, p Problem) Config {
	headDim := p.HeadDim
	if p.ElementSize() == 2 {
		switch {
		case headDim <= 64:
			blockN := 112
			if p.VarlenAndSplit {
				blockN = 80
			} else if p.Local {
				blockN = 96
			}
			return Config{BlockM: 128, BlockN: blockN, NumWarps: 4, NumStages: 1}

		case headDim <= 96:
			blockN := 64
			if p.VarlenAndSplit || p.Local {
				blockN = 48
			}
			return Config{BlockM: 128, BlockN: blockN, NumWarps: 4, NumStages: 1}

		case headDim <= 128:
			use8Warps := sm86Or89 || p.VarlenAndSplit
			var blockN int
			if use8Warps {
				if p.VarlenAndSplit {
					if p.Local {
						blockN = 96
					} else {
						blockN = 112
					}
				} else if p.Local {
					blockN = 96
				} else {
					blockN = 128
				}
			} else {
				if p.Local {
					blockN = 48
				} else {
					blockN = 64
				}
			}
			numWarps := 4
			if use8Warps {
				numWarps = 8
			}
			return Config{BlockM: 128, BlockN: blockN, NumWarps: numWarps, NumStages: 1, QInRegs: use8Warps}

		case headDim <= 192:
			narrowN := p.AppendKV || p.Local || p.VarlenAndSplit || p.PagedKV
			blockN := 96
			if narrowN {
				blockN = 64
			}
			numStages := 2
			if sm86Or89 {
				numStages = 1
			}
			return Config{BlockM: 128, BlockN: blockN, NumWarps: 8, NumStages: numStages, QInRegs: !narrowN}

		default:
			var blockN int
			if sm86Or89 {
				if p.AppendKV {
					blockN = 32
				} else if p.VarlenAndSplit || p.Local {
					blockN = 48
				} else {
					blockN = 64
				}
			} else {
				if p.AppendKV {
					blockN = 48
				} else if p.VarlenAndSplit || p.Local {
					blockN = 64
				} else {
					blockN = 96
				}
			}
			return Config{BlockM: 128, BlockN: blockN, NumWarps: 8, NumStages: 1, QInRegs: sm86Or89 && !p.AppendKV}
		}
	}

	// 4-byte elements: untuned placeholder, the same launch shape for every
	// problem until these kernels get profiled.
	return Config{BlockM: 128, BlockN: 64, NumWarps: 8, NumStages: 2}
}
