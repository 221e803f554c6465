package main

import (
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ivandobskygithub/flash-attention/internal/kernelgen"
	"github.com/ivandobskygithub/flash-attention/pkg/core/dtypes"
	"github.com/ivandobskygithub/flash-attention/pkg/tile"
)

func newSweepCmd() *cobra.Command {
	var arch, dtypeName string
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Print the tile table over the supported head-dimension grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyConfig(cmd); err != nil {
				return err
			}
			policy, err := tile.Lookup(arch)
			if err != nil {
				return err
			}
			dtype, err := dtypes.FromName(dtypeName)
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"d", "dv", "mask", "BlockM", "BlockN", "PV regs", "overlap", "warps", "stages", "Q regs"})
			for _, pair := range kernelgen.HeadDimPairs(arch) {
				for _, mask := range []string{"none", "causal", "local"} {
					p := tile.Problem{
						HeadDim:  pair[0],
						HeadDimV: pair[1],
						DType:    dtype,
						Causal:   mask == "causal",
						Local:    mask == "local",
					}
					cfg := policy.PlanFwd(p)
					table.Append([]string{
						strconv.Itoa(pair[0]),
						strconv.Itoa(pair[1]),
						mask,
						strconv.Itoa(cfg.BlockM),
						strconv.Itoa(cfg.BlockN),
						strconv.FormatBool(cfg.MmaPVInRegs),
						strconv.FormatBool(cfg.IntraWGOverlap),
						strconv.Itoa(cfg.NumWarps),
						strconv.Itoa(cfg.NumStages),
						strconv.FormatBool(cfg.QInRegs),
					})
				}
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&arch, "arch", "sm90", "target architecture")
	cmd.Flags().StringVar(&dtypeName, "dtype", "fp16", "element type")
	return cmd
}
