package tile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ivandobskygithub/flash-attention/pkg/core/dtypes"
)

func TestFwdSm8x_SmallHeadGolden(t *testing.T) {
	cfg := FwdSm8x(false, Problem{HeadDim: 64, HeadDimV: 64, DType: dtypes.Float16})
	assert.Equal(t, Config{BlockM: 128, BlockN: 112, NumWarps: 4, NumStages: 1}, cfg)

	assert.Equal(t, 96, FwdSm8x(false, Problem{HeadDim: 64, HeadDimV: 64, DType: dtypes.Float16, Local: true}).BlockN)
	assert.Equal(t, 80, FwdSm8x(false, Problem{HeadDim: 64, HeadDimV: 64, DType: dtypes.Float16, VarlenAndSplit: true}).BlockN)
}

func TestFwdSm8x_HeadDim128WarpWidening(t *testing.T) {
	p := Problem{HeadDim: 128, HeadDimV: 128, DType: dtypes.BFloat16}

	// sm80 keeps the 4-warp launch with Q staged through shared memory.
	sm80 := FwdSm8x(false, p)
	assert.Equal(t, 4, sm80.NumWarps)
	assert.Equal(t, 64, sm80.BlockN)
	assert.False(t, sm80.QInRegs)

	// sm86/sm89 widen to 8 warps and pin Q in registers.
	sm86 := FwdSm8x(true, p)
	assert.Equal(t, 8, sm86.NumWarps)
	assert.Equal(t, 128, sm86.BlockN)
	assert.True(t, sm86.QInRegs)

	// Varlen+split forces the widening on sm80 too, with a narrower tile.
	split := p
	split.VarlenAndSplit = true
	sm80Split := FwdSm8x(false, split)
	assert.Equal(t, 8, sm80Split.NumWarps)
	assert.Equal(t, 112, sm80Split.BlockN)
	assert.True(t, sm80Split.QInRegs)
}

func TestFwdSm8x_HeadDim192Stages(t *testing.T) {
	p := Problem{HeadDim: 192, HeadDimV: 192, DType: dtypes.Float16}

	sm80 := FwdSm8x(false, p)
	assert.Equal(t, Config{BlockM: 128, BlockN: 96, NumWarps: 8, NumStages: 2, QInRegs: true}, sm80)

	// The smaller parts cannot afford the second pipeline stage.
	assert.Equal(t, 1, FwdSm8x(true, p).NumStages)

	// Any KV-layout complication narrows the tile and evicts Q.
	for _, mutate := range []func(*Problem){
		func(p *Problem) { p.AppendKV = true },
		func(p *Problem) { p.Local = true },
		func(p *Problem) { p.VarlenAndSplit = true },
		func(p *Problem) { p.PagedKV = true },
	} {
		q := p
		mutate(&q)
		cfg := FwdSm8x(false, q)
		assert.Equal(t, 64, cfg.BlockN)
		assert.False(t, cfg.QInRegs)
	}
}

func TestFwdSm8x_LargestBucket(t *testing.T) {
	p := Problem{HeadDim: 256, HeadDimV: 256, DType: dtypes.Float16}

	assert.Equal(t, 96, FwdSm8x(false, p).BlockN)
	assert.Equal(t, 64, FwdSm8x(true, p).BlockN)

	appendKV := p
	appendKV.AppendKV = true
	assert.Equal(t, 48, FwdSm8x(false, appendKV).BlockN)
	sm86Append := FwdSm8x(true, appendKV)
	assert.Equal(t, 32, sm86Append.BlockN)
	assert.False(t, sm86Append.QInRegs)
	assert.True(t, FwdSm8x(true, p).QInRegs)
}

func TestFwdSm8x_FourBytePlaceholder(t *testing.T) {
	// The fp32 kernels are not tuned yet: one fixed launch shape for every
	// problem.
	want := Config{BlockM: 128, BlockN: 64, NumWarps: 8, NumStages: 2}
	for _, headDim := range []int{64, 128, 256} {
		for _, local := range []bool{false, true} {
			p := Problem{HeadDim: headDim, HeadDimV: headDim, DType: dtypes.Float32, Local: local}
			assert.Equal(t, want, FwdSm8x(false, p))
			assert.Equal(t, want, FwdSm8x(true, p))
		}
	}
}

func TestFwdSm8x_Invariants(t *testing.T) {
	bools := []bool{false, true}
	for _, headDim := range []int{32, 64, 96, 128, 192, 256, 320} {
		for _, sm86Or89 := range bools {
			for _, local := range bools {
				for _, split := range bools {
					for _, appendKV := range bools {
						p := Problem{
							HeadDim:        headDim,
							HeadDimV:       headDim,
							DType:          dtypes.Float16,
							Local:          local,
							VarlenAndSplit: split,
							AppendKV:       appendKV,
						}
						cfg := FwdSm8x(sm86Or89, p)
						assert.Equal(t, 128, cfg.BlockM, "BlockM is fixed for this class")
						assert.Zero(t, cfg.BlockN%BlockDimAlign)
						assert.GreaterOrEqual(t, cfg.BlockN, BlockDimAlign)
						assert.Contains(t, []int{4, 8}, cfg.NumWarps)
						assert.Contains(t, []int{1, 2}, cfg.NumStages)
					}
				}
			}
		}
	}
}
