package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/reviewloom-cli/internal/sample"
	"github.com/KaramelBytes/reviewloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	smpOutput      string
	smpReviews     int
	smpRestaurants int
	smpCities      []string
	smpSeed        int64
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Generate a synthetic review export (CSV or XLSX) for demos and tests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opt := sample.DefaultOptions()
		if smpReviews > 0 {
			opt.Reviews = smpReviews
		}
		if smpRestaurants > 0 {
			opt.Restaurants = smpRestaurants
		}
		if len(smpCities) > 0 {
			opt.Cities = smpCities
		}
		opt.Seed = smpSeed

		switch strings.ToLower(filepath.Ext(smpOutput)) {
		case ".xlsx":
			if err := sample.WriteXLSX(smpOutput, opt); err != nil {
				return err
			}
		case ".csv", ".txt":
			var buf bytes.Buffer
			if err := sample.WriteCSV(&buf, opt); err != nil {
				return err
			}
			if err := utils.SafeWriteFile(smpOutput, buf.Bytes()); err != nil {
				return fmt.Errorf("write %s: %w", smpOutput, err)
			}
		default:
			return fmt.Errorf("unsupported output extension for %s (use .csv or .xlsx)", smpOutput)
		}
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d synthetic review(s) to %s\n", opt.Reviews, smpOutput)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sampleCmd)
	sampleCmd.Flags().StringVarP(&smpOutput, "output", "o", "sample_reviews.csv", "output file (.csv or .xlsx)")
	sampleCmd.Flags().IntVar(&smpReviews, "reviews", 200, "number of reviews")
	sampleCmd.Flags().IntVar(&smpRestaurants, "restaurants", 8, "number of restaurants")
	sampleCmd.Flags().StringSliceVar(&smpCities, "cities", nil, "comma-separated city names (default Pune, Mumbai, Bengaluru)")
	sampleCmd.Flags().Int64Var(&smpSeed, "seed", 1, "random seed (0 = random)")
}
