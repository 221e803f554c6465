package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"

	"github.com/ivandobskygithub/flash-attention/pkg/tile"
)

// budgetConfig is the YAML schema for per-architecture budget overrides:
//
//	architectures:
//	  sm90:
//	    smem_bytes: 232448
//	    block_align: 16
type budgetConfig struct {
	Architectures map[string]archOverride `yaml:"architectures"`
}

type archOverride struct {
	SmemBytes  int `yaml:"smem_bytes"`
	BlockAlign int `yaml:"block_align"`
}

// archLimits tracks the shared-memory limits per architecture after any
// overrides. Only the Hopper class clamps against a budget; the Ampere/Ada
// parts have room for every tile their policy emits.
var archLimits = map[string]tile.Limits{
	"sm90": tile.DefaultSm90Limits,
}

// applyConfig loads the --config file, if given, and re-registers the
// affected policies with the overridden limits.
func applyConfig(cmd *cobra.Command) error {
	path, err := cmd.Flags().GetString("config")
	if err != nil || path == "" {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading budget config %q", path)
	}
	var cfg budgetConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return errors.Wrapf(err, "parsing budget config %q", path)
	}
	for arch, override := range cfg.Architectures {
		current, found := archLimits[arch]
		if !found {
			return errors.Errorf("architecture %q does not clamp against a shared-memory budget, nothing to override", arch)
		}
		if override.SmemBytes <= 0 {
			return errors.Errorf("architecture %q: smem_bytes must be positive, got %d", arch, override.SmemBytes)
		}
		limits := tile.Limits{SmemBytes: override.SmemBytes, BlockAlign: current.BlockAlign}
		if override.BlockAlign > 0 {
			limits.BlockAlign = override.BlockAlign
		}
		archLimits[arch] = limits
		tile.Register(tile.NewSm90Policy(limits))
		klog.V(1).Infof("overrode %s limits: %d bytes, %d-aligned", arch, limits.SmemBytes, limits.BlockAlign)
	}
	return nil
}
