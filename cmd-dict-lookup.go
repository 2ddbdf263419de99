package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/rpcpool/carbondict/asyncdict"
)

func newCmd_DictLookup() *cli.Command {
	return &cli.Command{
		Name:      "dict-lookup",
		Usage:     "Intern the strings from a file, then look each one back up and report hit/miss.",
		ArgsUsage: "<input-file>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "carriers", Value: 4, Usage: "number of dictionary shards"},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return cli.Exit("expected exactly one input file argument", 1)
			}
			lines, err := readLines(c.Args().First())
			if err != nil {
				return err
			}
			d, err := asyncdict.New(asyncdict.Config{
				NumCarriers: c.Int("carriers"),
				Capacity:    len(lines),
				Buckets:     len(lines),
			})
			if err != nil {
				return err
			}
			batch := make([][]byte, len(lines))
			for i, s := range lines {
				batch[i] = []byte(s)
			}
			if _, err := d.Insert(c.Context, batch); err != nil {
				return err
			}
			ids, found, notFound, err := d.LocateSafe(c.Context, batch)
			if err != nil {
				return err
			}
			for i, s := range lines {
				if found[i] {
					fmt.Printf("%s -> %d\n", s, ids[i])
				} else {
					fmt.Printf("%s -> _nil\n", s)
				}
			}
			fmt.Printf("%d not found\n", notFound)
			return nil
		},
	}
}
