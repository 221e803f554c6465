package kernelgen

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivandobskygithub/flash-attention/pkg/core/dtypes"
	"github.com/ivandobskygithub/flash-attention/pkg/tile"
)

func sm90Policy(t *testing.T) tile.Policy {
	t.Helper()
	policy, err := tile.Lookup("sm90")
	require.NoError(t, err)
	return policy
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("sm90", dtypes.Float16, 128, 128))
	assert.True(t, Supported("sm90", dtypes.Float32, 64, 64))
	assert.True(t, Supported("sm90", dtypes.BFloat16, 64, 512))
	assert.True(t, Supported("sm80", dtypes.BFloat16, 192, 192))

	// No kernels for these combinations.
	assert.False(t, Supported("sm80", dtypes.Float32, 64, 64))
	assert.False(t, Supported("sm80", dtypes.Float16, 64, 512))
	assert.False(t, Supported("sm90", dtypes.Float8E4M3, 128, 128))
	assert.False(t, Supported("sm90", dtypes.Float16, 80, 80))
}

func TestHeadDimPairs(t *testing.T) {
	sm90 := HeadDimPairs("sm90")
	assert.Contains(t, sm90, [2]int{64, 512})
	assert.Contains(t, sm90, [2]int{192, 128})

	sm80 := HeadDimPairs("sm80")
	assert.NotContains(t, sm80, [2]int{64, 512})
	assert.Len(t, sm80, 5)
}

func TestEnumerate_GridShape(t *testing.T) {
	// sm90: 8 head pairs x 3 dtypes x 3 masks x 2 paged x 2 softcap x 2 split.
	insts := Enumerate(sm90Policy(t))
	assert.Len(t, insts, 8*3*3*2*2*2)
	for _, inst := range insts {
		assert.Equal(t, "sm90", inst.Arch)
		assert.False(t, inst.AppendKV, "no append-KV variants for the Hopper class")
		assert.True(t, Supported(inst.Arch, inst.DType, inst.HeadDim, inst.HeadDimV))
		assert.GreaterOrEqual(t, inst.Config.BlockM, 16)
		assert.GreaterOrEqual(t, inst.Config.BlockN, 16)
	}

	// sm80 adds the append-KV axis but drops Float32 and the asymmetric pairs.
	sm80, err := tile.Lookup("sm80")
	require.NoError(t, err)
	assert.Len(t, Enumerate(sm80), 5*2*3*2*2*2*2)
}

func TestEnumerate_Deterministic(t *testing.T) {
	policy := sm90Policy(t)
	first := Enumerate(policy)
	second := Enumerate(policy)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("enumeration is not deterministic (-first +second):\n%s", diff)
	}
}

func TestEnumerate_PlansMatchPolicy(t *testing.T) {
	policy := sm90Policy(t)
	for _, inst := range Enumerate(policy) {
		p := tile.Problem{
			HeadDim:        inst.HeadDim,
			HeadDimV:       inst.HeadDimV,
			DType:          inst.DType,
			Causal:         inst.Causal,
			Local:          inst.Local,
			PagedKVNonTMA:  inst.PagedKV,
			Softcap:        inst.Softcap,
			VarlenAndSplit: inst.Split,
		}
		if diff := cmp.Diff(policy.PlanFwd(p), inst.Config); diff != "" {
			t.Fatalf("config mismatch for %+v (-want +got):\n%s", p, diff)
		}
	}
}

func TestCheck(t *testing.T) {
	insts := Enumerate(sm90Policy(t))
	require.NoError(t, Check(insts, tile.DefaultSm90Limits))

	// A budget below the floor tile must be rejected.
	err := Check(insts, tile.Limits{SmemBytes: 1024, BlockAlign: tile.BlockDimAlign})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shared memory")
}

func TestRenderJSON(t *testing.T) {
	insts := Enumerate(sm90Policy(t))[:4]
	var buf bytes.Buffer
	require.NoError(t, RenderJSON(&buf, insts))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 4)
	assert.Equal(t, "sm90", decoded[0]["arch"])
	assert.Equal(t, "Float16", decoded[0]["dtype"], "dtypes serialize by canonical name")
	assert.Equal(t, -65504.0, decoded[0]["mask_fill"])
	assert.Contains(t, decoded[0], "config")
}

func TestRenderCppList(t *testing.T) {
	insts := Enumerate(sm90Policy(t))[:2]
	var buf bytes.Buffer
	require.NoError(t, RenderCppList(&buf, insts))

	out := buf.String()
	assert.Contains(t, out, "template void run_mha_fwd_<90, cutlass::half_t, 64, 64,")
	assert.Equal(t, 2, strings.Count(out, "template void"))
}
