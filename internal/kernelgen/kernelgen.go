// Package kernelgen enumerates the forward-kernel instantiations the build
// step compiles, one per supported combination of architecture, element type,
// head-dimension pair and feature flags, each carrying its planned tile
// configuration.
//
// The validations the tile planner deliberately leaves to its caller live
// here: Supported filters out (head dim, dtype) combinations no kernel
// template exists for, and Check rejects any planned tile whose estimated
// shared-memory footprint still exceeds the architecture budget — which can
// only happen when even the smallest legal tile does not fit, and must fail
// the build rather than the launch.
package kernelgen

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/ivandobskygithub/flash-attention/pkg/core/dtypes"
	"github.com/ivandobskygithub/flash-attention/pkg/tile"
)

// Instantiation is one compiled forward-kernel variant together with its
// planned tile configuration.
type Instantiation struct {
	Arch     string       `json:"arch"`
	DType    dtypes.DType `json:"dtype"`
	HeadDim  int          `json:"head_dim"`
	HeadDimV int          `json:"head_dim_v"`

	Causal   bool `json:"causal"`
	Local    bool `json:"local"`
	PagedKV  bool `json:"paged_kv"`
	Softcap  bool `json:"softcap"`
	Split    bool `json:"split"`
	AppendKV bool `json:"append_kv"`

	// MaskFill is the value masked-out logits are filled with, the most
	// negative finite value of the score type.
	MaskFill float64 `json:"mask_fill"`

	Config tile.Config `json:"config"`
}

// squareHeadDims are the head sizes every architecture class builds kernels
// for, with HeadDimV equal to HeadDim.
var squareHeadDims = []int{64, 96, 128, 192, 256}

// hopperExtraPairs are the asymmetric (HeadDim, HeadDimV) pairs only the
// Hopper-class kernels support: MLA-style shapes with wide or narrow values.
var hopperExtraPairs = [][2]int{{64, 256}, {64, 512}, {192, 128}}

// isHopperClass reports whether the architecture uses the warp-specialized
// Hopper-class kernels rather than the Ampere/Ada-class ones.
func isHopperClass(arch string) bool {
	return arch == "sm90"
}

// HeadDimPairs returns the (HeadDim, HeadDimV) pairs kernels are built for on
// the given architecture.
func HeadDimPairs(arch string) [][2]int {
	pairs := make([][2]int, 0, len(squareHeadDims)+len(hopperExtraPairs))
	for _, d := range squareHeadDims {
		pairs = append(pairs, [2]int{d, d})
	}
	if isHopperClass(arch) {
		pairs = append(pairs, hopperExtraPairs...)
	}
	return pairs
}

// SupportedDTypes returns the element types kernels are built for on the
// given architecture. Float8E4M3 is modeled by pkg/core/dtypes but excluded
// here until the FP8 tile tables are tuned; Float32 kernels exist only for
// the Hopper class.
func SupportedDTypes(arch string) []dtypes.DType {
	if isHopperClass(arch) {
		return []dtypes.DType{dtypes.Float16, dtypes.BFloat16, dtypes.Float32}
	}
	return []dtypes.DType{dtypes.Float16, dtypes.BFloat16}
}

// Supported reports whether a kernel template exists for the combination.
// Callers must check this before planning a tile for it.
func Supported(arch string, dtype dtypes.DType, headDim, headDimV int) bool {
	found := false
	for _, supported := range SupportedDTypes(arch) {
		if dtype == supported {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	for _, pair := range HeadDimPairs(arch) {
		if pair[0] == headDim && pair[1] == headDimV {
			return true
		}
	}
	return false
}

// Enumerate walks the supported grid for the policy's architecture and plans
// every instantiation. The result order is deterministic.
//
// Masking modes are mutually exclusive, so the grid holds three of them (none,
// causal, local) rather than four flag combinations. AppendKV variants exist
// only for the Ampere/Ada-class decode kernels.
func Enumerate(policy tile.Policy) []Instantiation {
	arch := policy.Name()
	hopper := isHopperClass(arch)
	bools := []bool{false, true}
	appendKVs := []bool{false}
	if !hopper {
		appendKVs = bools
	}

	var insts []Instantiation
	for _, pair := range HeadDimPairs(arch) {
		for _, dtype := range SupportedDTypes(arch) {
			for _, mask := range []struct{ causal, local bool }{{false, false}, {true, false}, {false, true}} {
				for _, pagedKV := range bools {
					for _, softcap := range bools {
						for _, split := range bools {
							for _, appendKV := range appendKVs {
								p := tile.Problem{
									HeadDim:        pair[0],
									HeadDimV:       pair[1],
									DType:          dtype,
									Causal:         mask.causal,
									Local:          mask.local,
									Softcap:        softcap,
									VarlenAndSplit: split,
									AppendKV:       appendKV,
								}
								if hopper {
									// Only the non-TMA paging fallback needs its own tile shape.
									p.PagedKVNonTMA = pagedKV
								} else {
									p.PagedKV = pagedKV
								}
								insts = append(insts, Instantiation{
									Arch:     arch,
									DType:    dtype,
									HeadDim:  pair[0],
									HeadDimV: pair[1],
									Causal:   mask.causal,
									Local:    mask.local,
									PagedKV:  pagedKV,
									Softcap:  softcap,
									Split:    split,
									AppendKV: appendKV,
									MaskFill: dtype.MaskFillValue(),
									Config:   policy.PlanFwd(p),
								})
							}
						}
					}
				}
			}
		}
	}
	klog.V(1).Infof("enumerated %d forward-kernel instantiations for %s", len(insts), arch)
	return insts
}

// Check re-estimates every solver-planned tile against the architecture's
// shared-memory limits and fails on any overrun. Only the 2-byte kernels go
// through the solver; the 4-byte tables are fixed shapes verified offline.
//
// An overrun means even the floor tile does not fit the budget. That is a
// build-configuration error: the instantiation must be dropped, not launched.
func Check(insts []Instantiation, limits tile.Limits) error {
	for _, inst := range insts {
		elementSize := inst.DType.SizeBytes()
		if elementSize != 2 {
			continue
		}
		usage := tile.SmemEstimateBytes(inst.Config.BlockM, inst.Config.BlockN, inst.HeadDim, inst.HeadDimV, elementSize)
		if usage > limits.SmemBytes {
			return errors.Errorf(
				"%s %s d=%d dv=%d: planned tile %dx%d needs %d bytes of shared memory, budget is %d -- no legal tile fits, reject this instantiation",
				inst.Arch, inst.DType, inst.HeadDim, inst.HeadDimV,
				inst.Config.BlockM, inst.Config.BlockN, usage, limits.SmemBytes)
		}
		klog.V(2).Infof("%s %s d=%d dv=%d: %dx%d uses %d/%d bytes",
			inst.Arch, inst.DType, inst.HeadDim, inst.HeadDimV,
			inst.Config.BlockM, inst.Config.BlockN, usage, limits.SmemBytes)
	}
	return nil
}
