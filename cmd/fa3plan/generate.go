package main

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/ivandobskygithub/flash-attention/internal/kernelgen"
	"github.com/ivandobskygithub/flash-attention/pkg/tile"
)

func newGenerateCmd() *cobra.Command {
	var arch, format, output string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Emit the kernel-instantiation manifest for one architecture",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyConfig(cmd); err != nil {
				return err
			}
			policy, err := tile.Lookup(arch)
			if err != nil {
				return err
			}
			insts := kernelgen.Enumerate(policy)
			if limits, found := archLimits[arch]; found {
				if err := kernelgen.Check(insts, limits); err != nil {
					return err
				}
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return errors.Wrapf(err, "creating %q", output)
				}
				defer f.Close()
				w = f
			}
			switch format {
			case "json":
				err = kernelgen.RenderJSON(w, insts)
			case "cpp":
				err = kernelgen.RenderCppList(w, insts)
			default:
				return errors.Errorf("unknown format %q (want json or cpp)", format)
			}
			if err != nil {
				return err
			}
			klog.V(1).Infof("wrote %d instantiations for %s", len(insts), arch)
			return nil
		},
	}
	cmd.Flags().StringVar(&arch, "arch", "sm90", "target architecture")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or cpp")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newCheckCmd() *cobra.Command {
	var arch string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify every planned tile fits the architecture's shared-memory budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyConfig(cmd); err != nil {
				return err
			}
			limits, found := archLimits[arch]
			if !found {
				return errors.Errorf("architecture %q has no shared-memory budget to check against", arch)
			}
			policy, err := tile.Lookup(arch)
			if err != nil {
				return err
			}
			insts := kernelgen.Enumerate(policy)
			if err := kernelgen.Check(insts, limits); err != nil {
				return err
			}
			klog.Infof("%s: all %d instantiations fit %d bytes", arch, len(insts), limits.SmemBytes)
			return nil
		},
	}
	cmd.Flags().StringVar(&arch, "arch", "sm90", "target architecture")
	return cmd
}
