package kernelgen

import (
	"encoding/json"
	"io"
	"strings"
	"text/template"

	"github.com/pkg/errors"

	"github.com/ivandobskygithub/flash-attention/pkg/core/dtypes"
)

// RenderJSON writes the instantiation manifest as indented JSON, one object
// per kernel variant. Build scripts consume this to decide which template
// instantiation files to emit.
func RenderJSON(w io.Writer, insts []Instantiation) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(insts); err != nil {
		return errors.Wrap(err, "encoding instantiation manifest")
	}
	return nil
}

// cppDType maps an element type to the type name the kernel templates use.
func cppDType(dtype dtypes.DType) string {
	switch dtype {
	case dtypes.Float16:
		return "cutlass::half_t"
	case dtypes.BFloat16:
		return "cutlass::bfloat16_t"
	case dtypes.Float8E4M3:
		return "cutlass::float_e4m3_t"
	case dtypes.Float32:
		return "float"
	}
	return "void"
}

// archNumber strips the "sm" prefix: "sm90" -> "90".
func archNumber(arch string) string {
	return strings.TrimPrefix(arch, "sm")
}

var cppListTemplate = template.Must(template.New("instantiations").Funcs(template.FuncMap{
	"cppDType":   cppDType,
	"archNumber": archNumber,
}).Parse(`// Generated forward-kernel instantiation list. Do not edit.
{{- range . }}
template void run_mha_fwd_<{{ archNumber .Arch }}, {{ cppDType .DType }}, {{ .HeadDim }}, {{ .HeadDimV }}, {{ .Config.BlockM }}, {{ .Config.BlockN }}, {{ .Causal }}, {{ .Local }}, {{ .PagedKV }}, {{ .Softcap }}, {{ .Split }}, {{ .AppendKV }}, {{ .Config.MmaPVInRegs }}, {{ .Config.IntraWGOverlap }}, {{ .Config.NumWarps }}, {{ .Config.NumStages }}, {{ .Config.QInRegs }}>(Flash_fwd_params &params, cudaStream_t stream);
{{- end }}
`))

// RenderCppList writes the instantiation list as C++ explicit template
// instantiations, ready to be split into per-variant translation units by the
// build step.
func RenderCppList(w io.Writer, insts []Instantiation) error {
	if err := cppListTemplate.Execute(w, insts); err != nil {
		return errors.Wrap(err, "rendering instantiation list")
	}
	return nil
}
