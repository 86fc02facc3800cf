package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"wbscraper/pkg/config"
	"wbscraper/pkg/storage"
	"wbscraper/pkg/ui"
	"wbscraper/pkg/weibo"
)

var showNetworkCmd = &cobra.Command{
	Use:   "show <seed id>",
	Short: "Print the saved reciprocal-follow network of a seed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seedID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || seedID <= 0 {
			return fmt.Errorf("invalid seed id %q", args[0])
		}

		cfg := config.DefaultConfig()
		if err := cfg.LoadFromFile(configFile); err != nil {
			return err
		}
		if err := cfg.LoadFromEnv(); err != nil {
			return err
		}
		if outputDir != "" {
			cfg.Output.BaseDirectory = outputDir
		}

		store, err := storage.NewManager(cfg.Output.BaseDirectory)
		if err != nil {
			return err
		}
		members, err := store.LoadSnapshot(seedID)
		if err != nil {
			return err
		}

		rows := make([]ui.NetworkRow, 0, len(members))
		for _, m := range members {
			rows = append(rows, ui.NetworkRow{
				Rank:           m.Rank,
				Depth:          m.Depth,
				ID:             m.ID,
				ScreenName:     m.ScreenName,
				FollowersCount: m.FollowersCount,
				Location:       m.Location,
			})
		}
		if err := ui.WriteNetworkTable(os.Stdout, rows); err != nil {
			return err
		}
		ui.PrintInfo("Seed profile", weibo.ProfilePageURL(seedID))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showNetworkCmd)
	showNetworkCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory")
}
