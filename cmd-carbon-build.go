package main

import (
	"os"

	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"

	"github.com/rpcpool/carbondict/carbon/jsonbuild"
)

func newCmd_CarbonBuild() *cli.Command {
	return &cli.Command{
		Name:      "carbon-build",
		Usage:     "Build a Carbon record from a JSON document.",
		ArgsUsage: "<input.json> <output.carbon>",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 2 {
				return cli.Exit("expected <input.json> <output.carbon>", 1)
			}
			raw, err := os.ReadFile(c.Args().Get(0))
			if err != nil {
				return err
			}
			encoded, err := jsonbuild.Build(raw)
			if err != nil {
				return err
			}
			if err := os.WriteFile(c.Args().Get(1), encoded, 0o644); err != nil {
				return err
			}
			klog.Infof("wrote %d bytes to %s", len(encoded), c.Args().Get(1))
			return nil
		},
	}
}
