package main

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"k8s.io/klog/v2"

	"github.com/rpcpool/carbondict/asyncdict"
)

func newCmd_DictInsert() *cli.Command {
	return &cli.Command{
		Name:      "dict-insert",
		Usage:     "Intern newline-delimited strings from a file into a fresh sharded dictionary.",
		ArgsUsage: "<input-file>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "carriers", Value: 4, Usage: "number of dictionary shards"},
			&cli.IntFlag{Name: "capacity", Value: 1 << 16, Usage: "initial total contents capacity across shards"},
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
				Capacity:    c.Int("capacity"),
				Buckets:     c.Int("capacity"),
			})
			if err != nil {
				return err
			}

			progress := mpb.New(mpb.WithWidth(48))
			bar := progress.AddBar(int64(len(lines)),
				mpb.PrependDecorators(decor.Name("interning")),
				mpb.AppendDecorators(decor.CountersNoUnit("%d / %d"), decor.Percentage()),
			)

			const batchSize = 4096
			var total int
			start := time.Now()
			for i := 0; i < len(lines); i += batchSize {
				end := min(i+batchSize, len(lines))
				batch := make([][]byte, end-i)
				for j := range batch {
					batch[j] = []byte(lines[i+j])
				}
				ids, err := d.Insert(c.Context, batch)
				if err != nil {
					return err
				}
				total += len(ids)
				bar.IncrBy(len(batch))
			}
			progress.Wait()

			klog.Infof("interned %d strings across %d carriers in %s", total, d.NumCarriers(), time.Since(start))
			snap := d.Counters()
			fmt.Printf("probes=%d hits=%d misses=%d\n", snap.Probes, snap.Hits, snap.Misses)
			return nil
		},
	}
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		if sc.Text() != "" {
			lines = append(lines, sc.Text())
		}
	}
	return lines, sc.Err()
}
