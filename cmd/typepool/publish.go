package main

import (
	"errors"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"typepool/internal/crawler"
)

var publishCmd = &cobra.Command{
	Use:   "publish PATH...",
	Short: "Copy class files from directories and jars into Redis",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Redis.Addr == "" {
			return errors.New("redis.addr is not configured")
		}

		r, err := openRedis(cfg)
		if err != nil {
			return err
		}
		defer r.Close()

		ctx := cmd.Context()
		published := 0
		c := crawler.NewCrawler()
		for _, root := range args {
			err := c.Scan(root, func(e crawler.Entry) error {
				if err := r.Put(ctx, e.Name, e.Data); err != nil {
					return err
				}
				published++
				return nil
			})
			if err != nil {
				return err
			}
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "published %d class file(s) to %s\n", published, cfg.Redis.Addr)
		return nil
	},
}
