package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/joeunion/pidog/internal/config"
	"github.com/joeunion/pidog/internal/store"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect the memory store",
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print row counts for every table",
	RunE:  runDBStats,
}

func runDBStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	stats, err := st.Stats()
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	tables := make([]string, 0, len(stats))
	for t := range stats {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	for _, t := range tables {
		fmt.Printf("%-14s %d\n", t, stats[t])
	}
	return nil
}
