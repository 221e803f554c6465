package tile

// SmemEstimateBytes returns the estimated shared-memory footprint in bytes of
// a (blockM, blockN) tile at the given head widths and element size.
//
// The Q/K/V residency is double-buffered so copies overlap compute. Value
// dims of 256+ already push the footprint high, as does a combined head+value
// width of 512+, so those regimes are modeled single-buffered; treating them
// as double-buffered would make the solver clamp tiles far below what the
// kernels actually need.
//
// The function is total and monotonically non-decreasing in every argument.
func SmemEstimateBytes(blockM, blockN, headDim, headDimV, elementSize int) int {
	buffering := 2
	if headDimV >= 256 || headDim+headDimV >= 512 {
		buffering = 1
	}
	return buffering * (blockM + blockN) * (headDim + headDimV) * elementSize
}
