// Package dtypes enumerates the element types the forward attention kernels
// are instantiated with.
//
// Only the types the kernel templates actually support are listed: Float16 and
// BFloat16 (2-byte), Float8E4M3 (1-byte) and Float32 (4-byte). The package
// provides the element width used by the shared-memory estimator, canonical
// and alias names for the CLI and configuration surfaces, and the mask fill
// value the code-generation layer plugs into masked-out attention logits.
package dtypes

import (
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// DType is the element type of the Q/K/V tensors a kernel is instantiated for.
type DType int

const (
	InvalidDType DType = iota

	// Float16 is IEEE 754 half precision.
	Float16

	// BFloat16 is the truncated 16-bit brain floating-point format.
	BFloat16

	// Float8E4M3 is the 8-bit floating-point format with a 4-bit exponent and
	// 3-bit mantissa used by the FP8 forward kernels.
	Float8E4M3

	// Float32 is IEEE 754 single precision.
	Float32
)

// All lists the valid kernel element types, in enum order.
var All = []DType{Float16, BFloat16, Float8E4M3, Float32}

// MapOfNames maps canonical names and their common aliases to the DType.
// Lower-case versions of every key are added during initialization.
var MapOfNames = map[string]DType{
	"Float16":    Float16,
	"F16":        Float16,
	"FP16":       Float16,
	"Half":       Float16,
	"BFloat16":   BFloat16,
	"BF16":       BFloat16,
	"Float8E4M3": Float8E4M3,
	"E4M3":       Float8E4M3,
	"FP8":        Float8E4M3,
	"Float32":    Float32,
	"F32":        Float32,
	"FP32":       Float32,
}

func init() {
	keys := make([]string, 0, len(MapOfNames))
	for key := range MapOfNames {
		keys = append(keys, key)
	}
	for _, key := range keys {
		lowerKey := strings.ToLower(key)
		if _, found := MapOfNames[lowerKey]; found {
			continue
		}
		MapOfNames[lowerKey] = MapOfNames[key]
	}
}

// FromName converts a canonical name or alias (case-insensitive) to its DType.
func FromName(name string) (DType, error) {
	dtype, found := MapOfNames[name]
	if !found {
		dtype, found = MapOfNames[strings.ToLower(name)]
	}
	if !found {
		return InvalidDType, errors.Errorf("unknown kernel element type %q", name)
	}
	return dtype, nil
}

// String implements fmt.Stringer, returning the canonical name.
func (dtype DType) String() string {
	switch dtype {
	case Float16:
		return "Float16"
	case BFloat16:
		return "BFloat16"
	case Float8E4M3:
		return "Float8E4M3"
	case Float32:
		return "Float32"
	}
	return "InvalidDType"
}

// IsValid reports whether dtype is one of the supported kernel element types.
func (dtype DType) IsValid() bool {
	return dtype > InvalidDType && dtype <= Float32
}

// SizeBytes returns the width of one element in bytes: 2 for Float16/BFloat16,
// 1 for Float8E4M3 and 4 for Float32. It returns 0 for an invalid DType.
func (dtype DType) SizeBytes() int {
	switch dtype {
	case Float16, BFloat16:
		return 2
	case Float8E4M3:
		return 1
	case Float32:
		return 4
	}
	return 0
}

// MarshalText implements encoding.TextMarshaler with the canonical name, so
// DType fields serialize as strings in JSON and YAML surfaces.
func (dtype DType) MarshalText() ([]byte, error) {
	if !dtype.IsValid() {
		return nil, errors.Errorf("cannot marshal invalid DType %d", int(dtype))
	}
	return []byte(dtype.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, accepting any name or
// alias FromName accepts.
func (dtype *DType) UnmarshalText(text []byte) error {
	parsed, err := FromName(string(text))
	if err != nil {
		return err
	}
	*dtype = parsed
	return nil
}

// lowestFiniteBFloat16 is 0xFF7F reinterpreted as a float32: the most negative
// finite bfloat16, -(2-2^-7)*2^127.
var lowestFiniteBFloat16 = float64(math.Float32frombits(0xFF7F_0000))

// MaskFillValue returns the most negative finite value representable in the
// score type associated with dtype, as a float64. Masked-out attention logits
// are filled with this value before the online softmax; using the finite
// lowest value rather than -Inf keeps exp() well-defined on all lanes.
//
// FP8 kernels keep their softmax statistics in Float16, so Float8E4M3 shares
// Float16's fill value.
func (dtype DType) MaskFillValue() float64 {
	switch dtype {
	case Float16, Float8E4M3:
		return float64(float16.Frombits(0xFBFF).Float32()) // -65504
	case BFloat16:
		return lowestFiniteBFloat16
	case Float32:
		return -math.MaxFloat32
	}
	return 0
}
