package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func newCurateCmd() *cobra.Command {
	var (
		configPath string
		outPath    string
		show       int
	)
	cmd := &cobra.Command{
		Use:   "curate",
		Short: "load the document, curate seed sentences and print the statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			ctx := context.Background()
			doc, err := loadDocument(ctx, cfg)
			if err != nil {
				return err
			}
			bar := getProgressBar(len(doc.Pages), "curating "+doc.Name)
			seeds, report := curateSeeds(cfg, doc, func(int) { _ = bar.Add(1) })
			_ = bar.Finish()
			fmt.Println()

			color.Green("pages: %d  candidates: %d  accepted: %d  duplicates: %d",
				report.Pages, report.Candidates, report.Accepted, report.Duplicates)
			reasons := make([]string, 0, len(report.Rejected))
			for reason := range report.Rejected {
				reasons = append(reasons, reason)
			}
			sort.Slice(reasons, func(i, j int) bool {
				return report.Rejected[reasons[i]] > report.Rejected[reasons[j]]
			})
			for _, reason := range reasons {
				fmt.Printf("  %s %d\n", color.YellowString("%-14s", reason), report.Rejected[reason])
			}
			if len(seeds) == 0 {
				color.Red("no seed sentences survived curation")
			}
			for i := 0; i < show && i < len(seeds); i++ {
				fmt.Printf("%s %s\n", color.CyanString("%4d", i+1), seeds[i])
			}
			if outPath != "" {
				if err := os.WriteFile(outPath, []byte(strings.Join(seeds, "\n")+"\n"), 0o644); err != nil {
					return fmt.Errorf("write seeds: %w", err)
				}
				color.Blue("wrote %d seeds to %s", len(seeds), outPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to config.json or config.yaml")
	cmd.Flags().StringVar(&outPath, "out", "", "write curated seeds to this file, one per line")
	cmd.Flags().IntVar(&show, "show", 0, "print the first N curated seeds")
	return cmd
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("pages"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}
