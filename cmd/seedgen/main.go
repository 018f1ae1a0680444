// seedgen fills the two legacy development databases with synthetic
// inquiries, change events and archive postings so that the migrator can be
// exercised end to end without production data.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/navikt/inquiry-migrator/internal/seed"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "seedgen",
	Short: "Synthetic legacy data generator",
	Long: `seedgen generates coherent synthetic data for the legacy inquiry and
archive databases: subjects with aktor mappings, completed inquiries with
parseable payload documents, their change events, and archive postings with
attachments.`,
	Version: "0.1.0",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate and insert a dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := seed.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := applyFlags(cmd, cfg); err != nil {
			return err
		}

		g := seed.NewGenerator(cfg)
		subjects := g.Subjects()
		inquiries := g.Inquiries(subjects)

		ctx := context.Background()
		runner, err := seed.NewRunner(ctx, cfg)
		if err != nil {
			return err
		}
		defer runner.Close()

		if err := runner.Insert(ctx, subjects, inquiries); err != nil {
			return err
		}
		fmt.Printf("inserted %d subjects and %d inquiries\n", len(subjects), len(inquiries))
		return nil
	},
}

var sampleConfigCmd = &cobra.Command{
	Use:   "sample-config",
	Short: "Print a config file with the default values",
	RunE: func(cmd *cobra.Command, args []string) error {
		sample, err := seed.Sample()
		if err != nil {
			return err
		}
		fmt.Print(sample)
		return nil
	},
}

func applyFlags(cmd *cobra.Command, cfg *seed.Config) error {
	flags := cmd.Flags()
	if flags.Changed("subjects") {
		n, err := flags.GetInt("subjects")
		if err != nil {
			return err
		}
		cfg.Subjects = n
	}
	if flags.Changed("inquiries") {
		n, err := flags.GetInt("inquiries")
		if err != nil {
			return err
		}
		cfg.Inquiries = n
	}
	if flags.Changed("seed") {
		n, err := flags.GetInt64("seed")
		if err != nil {
			return err
		}
		cfg.Seed = n
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: built-in defaults)")
	runCmd.Flags().Int("subjects", 0, "number of subjects to generate")
	runCmd.Flags().Int("inquiries", 0, "number of inquiries to generate")
	runCmd.Flags().Int64("seed", 0, "random seed for reproducible datasets")
	rootCmd.AddCommand(runCmd, sampleConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
