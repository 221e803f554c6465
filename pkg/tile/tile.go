// Package tile selects the tile shape and scheduling flags for the forward
// attention kernels.
//
// Given the shape of the attention problem (head dimensions, element type,
// masking/paging feature flags) and the shared-memory capacity of the target
// architecture, the planner deterministically picks the kernel's block
// dimensions along the query axis (BlockM) and the key/value axis (BlockN),
// plus the auxiliary flags the kernel templates and the launch code consume.
// The chosen tile's estimated shared-memory footprint never exceeds the
// architecture budget, except in the degenerate case where even the smallest
// legal tile does not fit; detecting that case is the caller's responsibility
// (see internal/kernelgen).
//
// Each architecture class implements the Policy interface and registers itself
// by name; PlanFwd dispatches on the architecture name. All operations are
// pure functions of their inputs and safe for concurrent use.
package tile

import "github.com/ivandobskygithub/flash-attention/pkg/core/dtypes"

// Problem describes one attention computation the kernel-generation layer
// wants a kernel instantiated for. All fields are fixed per instantiation.
type Problem struct {
	// HeadDim is the per-head feature width of Q and K.
	HeadDim int
	// HeadDimV is the per-head feature width of V, usually equal to HeadDim.
	HeadDimV int
	// DType is the element type of Q/K/V; its byte width drives the
	// shared-memory estimate.
	DType dtypes.DType

	// Causal applies lower-triangular masking; Local applies a sliding
	// window. At most one of the two is set.
	Causal bool
	Local  bool

	// VColMajor stores V column-major in shared memory.
	VColMajor bool
	// PagedKVNonTMA pages the KV cache with plain copies instead of TMA.
	PagedKVNonTMA bool
	// PagedKV pages the KV cache (Ampere/Ada-class kernels).
	PagedKV bool
	// Softcap applies tanh soft-capping to the logits.
	Softcap bool
	// AppendKV writes new KV tokens into the cache inside the kernel.
	AppendKV bool
	// VarlenAndSplit is set when both variable-length sequences and
	// split-KV decoding are in play.
	VarlenAndSplit bool
}

// ElementSize returns the byte width of one Q/K/V element.
func (p Problem) ElementSize() int {
	return p.DType.SizeBytes()
}

// Config is the planned tile configuration for one kernel instantiation.
//
// BlockM and BlockN are always multiples of 16 and at least 16. The remaining
// fields are scheduling hints for the kernel templates and the launch layer;
// each architecture class fills only the fields its kernels consume and
// leaves the rest at their zero value.
type Config struct {
	// BlockM and BlockN are the tile extents along the query and the
	// key/value sequence axes.
	BlockM int
	BlockN int

	// MmaPVInRegs keeps the P operand of the P*V matmul in registers
	// instead of shared memory (Hopper-class kernels).
	MmaPVInRegs bool
	// IntraWGOverlap overlaps softmax with the next GEMM inside one
	// warpgroup (Hopper-class kernels).
	IntraWGOverlap bool

	// NumWarps and NumStages are the launch shape of the Ampere/Ada-class
	// kernels: 4 or 8 warps, 1 or 2 pipeline stages.
	NumWarps  int
	NumStages int
	// QInRegs keeps the Q tile in registers for the whole main loop
	// (Ampere/Ada-class kernels).
	QInRegs bool
}
