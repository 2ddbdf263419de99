package main

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli/v2"

	"github.com/rpcpool/carbondict/carbon/dotpath"
	"github.com/rpcpool/carbondict/carbon/render"
	"github.com/rpcpool/carbondict/carbon/revise"
)

func newCmd_CarbonGet() *cli.Command {
	return &cli.Command{
		Name:      "carbon-get",
		Usage:     "Resolve a dot-path in a Carbon record, or dump the whole record as JSON.",
		ArgsUsage: "<record.carbon> [path]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "extended", Usage: "dump the full {meta,doc} interchange envelope instead of compact form"},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() < 1 {
				return cli.Exit("expected <record.carbon> [path]", 1)
			}
			raw, err := os.ReadFile(c.Args().Get(0))
			if err != nil {
				return err
			}
			rec := revise.New(raw, false)

			if c.Args().Len() == 1 {
				var out []byte
				if c.Bool("extended") {
					out, err = render.Extended(rec)
				} else {
					out, err = render.Compact(rec)
				}
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			result, err := dotpath.Resolve(rec, c.Args().Get(1))
			if err != nil {
				return err
			}
			if !result.HasResult() {
				fmt.Println(render.NilText)
				return nil
			}
			v, err := render.DecodeField(result.Field())
			if err != nil {
				return err
			}
			out, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(v)
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}
