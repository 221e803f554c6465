// fa3plan is the build-time driver for the forward attention kernel planner.
//
// It exposes the tile planner to the code-generation/build step:
//
//	fa3plan plan --arch sm90 --head-dim 128 --dtype bf16 --causal
//	fa3plan generate --arch sm90 --format cpp -o instantiations.inl
//	fa3plan check --arch sm90
//	fa3plan sweep --arch sm80 --dtype fp16
//
// An optional YAML file (--config) overrides per-architecture shared-memory
// budgets, for targeting parts with a different carve-out.
package main

import (
	goflag "flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fa3plan",
		Short:         "Plan tile configurations for the forward attention kernels",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	klogFlags := goflag.NewFlagSet("klog", goflag.ExitOnError)
	klog.InitFlags(klogFlags)
	rootCmd.PersistentFlags().AddGoFlagSet(klogFlags)
	rootCmd.PersistentFlags().String("config", "", "YAML file with per-architecture budget overrides")

	rootCmd.AddCommand(
		newPlanCmd(),
		newGenerateCmd(),
		newCheckCmd(),
		newSweepCmd(),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
