package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ivandobskygithub/flash-attention/pkg/core/dtypes"
	"github.com/ivandobskygithub/flash-attention/pkg/tile"
)

// problemFlags declares the flags describing one attention problem shape and
// builds the tile.Problem from their values.
type problemFlags struct {
	arch     string
	dtype    string
	headDim  int
	headDimV int

	causal, local  bool
	vColMajor      bool
	pagedKV        bool
	pagedKVNonTMA  bool
	softcap        bool
	appendKV       bool
	varlenAndSplit bool
}

func (f *problemFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.arch, "arch", "sm90", "target architecture: "+fmt.Sprint(tile.Architectures()))
	cmd.Flags().StringVar(&f.dtype, "dtype", "fp16", "element type (fp16, bf16, fp32)")
	cmd.Flags().IntVar(&f.headDim, "head-dim", 128, "Q/K head dimension")
	cmd.Flags().IntVar(&f.headDimV, "head-dim-v", 0, "V head dimension (defaults to --head-dim)")
	cmd.Flags().BoolVar(&f.causal, "causal", false, "causal masking")
	cmd.Flags().BoolVar(&f.local, "local", false, "sliding-window masking")
	cmd.Flags().BoolVar(&f.vColMajor, "v-colmajor", false, "V stored column-major")
	cmd.Flags().BoolVar(&f.pagedKV, "paged-kv", false, "paged KV cache")
	cmd.Flags().BoolVar(&f.pagedKVNonTMA, "paged-kv-non-tma", false, "paged KV cache without TMA copies")
	cmd.Flags().BoolVar(&f.softcap, "softcap", false, "tanh logit soft-capping")
	cmd.Flags().BoolVar(&f.appendKV, "append-kv", false, "append new KV tokens in-kernel")
	cmd.Flags().BoolVar(&f.varlenAndSplit, "varlen-split", false, "variable-length sequences with split-KV")
}

func (f *problemFlags) problem() (tile.Problem, error) {
	dtype, err := dtypes.FromName(f.dtype)
	if err != nil {
		return tile.Problem{}, err
	}
	headDimV := f.headDimV
	if headDimV == 0 {
		headDimV = f.headDim
	}
	return tile.Problem{
		HeadDim:        f.headDim,
		HeadDimV:       headDimV,
		DType:          dtype,
		Causal:         f.causal,
		Local:          f.local,
		VColMajor:      f.vColMajor,
		PagedKV:        f.pagedKV,
		PagedKVNonTMA:  f.pagedKVNonTMA,
		Softcap:        f.softcap,
		AppendKV:       f.appendKV,
		VarlenAndSplit: f.varlenAndSplit,
	}, nil
}

func newPlanCmd() *cobra.Command {
	var flags problemFlags
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the tile configuration for one problem shape",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyConfig(cmd); err != nil {
				return err
			}
			p, err := flags.problem()
			if err != nil {
				return err
			}
			cfg, err := tile.PlanFwd(flags.arch, p)
			if err != nil {
				return err
			}
			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(cfg)
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"%s d=%d dv=%d %s: BlockM=%d BlockN=%d MmaPVInRegs=%v IntraWGOverlap=%v NumWarps=%d NumStages=%d QInRegs=%v\n",
				flags.arch, p.HeadDim, p.HeadDimV, p.DType,
				cfg.BlockM, cfg.BlockN, cfg.MmaPVInRegs, cfg.IntraWGOverlap,
				cfg.NumWarps, cfg.NumStages, cfg.QInRegs)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the configuration as JSON")
	return cmd
}
