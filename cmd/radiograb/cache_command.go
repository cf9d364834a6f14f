package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"radiograb/internal/fetchcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the catalog page cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show fetch cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache(cmd, ctx)
			if err != nil {
				return err
			}
			defer cache.Close(cmd.Context())

			stats, err := cache.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Backend: %s\n", stats.Backend)
			fmt.Fprintf(out, "Entries: %d\n", stats.Entries)
			fmt.Fprintf(out, "TTL:     %s\n", cache.TTL())
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached catalog page",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache(cmd, ctx)
			if err != nil {
				return err
			}
			defer cache.Close(cmd.Context())

			removed, err := cache.Clear(cmd.Context())
			if err != nil {
				return err
			}
			if removed == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Cache already empty")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached pages\n", removed)
			return nil
		},
	}
}

func openCache(cmd *cobra.Command, ctx *commandContext) (*fetchcache.Service, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := ctx.logger("")
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return fetchcache.Open(cmd.Context(), cfg, logger)
}
