package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/comps-finder/internal/discovery"
	"github.com/sells-group/comps-finder/internal/extract"
	"github.com/sells-group/comps-finder/internal/fetch"
	"github.com/sells-group/comps-finder/internal/model"
	"github.com/sells-group/comps-finder/internal/output"
	"github.com/sells-group/comps-finder/internal/pipeline"
	anthropicpkg "github.com/sells-group/comps-finder/pkg/anthropic"
)

var (
	findName        string
	findDescription string
	findURL         string
	findIndustry    string
	findTargetFile  string
	findOutput      string
	findFormat      string
	findMinScore    float64
	findMaxFinal    int
)

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Find comparable companies for a target firm",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		target, err := loadTarget(cmd)
		if err != nil {
			return err
		}

		// Flag overrides on top of config/env.
		if cmd.Flags().Changed("min-score") {
			cfg.Pipeline.MinScore = findMinScore
		}
		if cmd.Flags().Changed("max-final") {
			cfg.Pipeline.MaxFinal = findMaxFinal
		}
		if err := cfg.Pipeline.Validate(); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		seeds, err := discovery.LoadSeedList(cfg.Discovery.SeedFile)
		if err != nil {
			return eris.Wrap(err, "load seed list")
		}

		aiClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
		extractor := extract.New(aiClient, cfg.Anthropic)
		fetcher := fetch.New(cfg.Fetch)

		p := pipeline.New(cfg, st, extractor, fetcher, seeds)

		run, err := p.Run(ctx, target)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("run finished",
			zap.String("run_id", run.ID),
			zap.Int("comparables", len(run.Result.Comparables)),
		)

		format := cfg.Output.Format
		if cmd.Flags().Changed("format") {
			format = findFormat
		}
		if findOutput != "" {
			if err := output.WriteResult(run.Result, findOutput, format); err != nil {
				return err
			}
		}

		output.PrintSummary(os.Stdout, run.Result)
		return nil
	},
}

// loadTarget builds the target either from a JSON file or from flags.
func loadTarget(cmd *cobra.Command) (model.TargetInput, error) {
	var target model.TargetInput

	if findTargetFile != "" {
		data, err := os.ReadFile(findTargetFile)
		if err != nil {
			return target, eris.Wrapf(err, "read target file %s", findTargetFile)
		}
		if err := json.Unmarshal(data, &target); err != nil {
			return target, eris.Wrapf(err, "parse target file %s", findTargetFile)
		}
	} else {
		target = model.TargetInput{
			Name:                findName,
			BusinessDescription: findDescription,
			URL:                 findURL,
			PrimaryIndustry:     findIndustry,
		}
	}

	if target.Name == "" {
		return target, eris.New("target name is required (--name or --target file)")
	}
	if target.BusinessDescription == "" {
		return target, eris.New("business description is required (--description or --target file)")
	}
	return target, nil
}

func init() {
	findCmd.Flags().StringVar(&findName, "name", "", "target company name")
	findCmd.Flags().StringVar(&findDescription, "description", "", "target business description")
	findCmd.Flags().StringVar(&findURL, "url", "", "target company website URL")
	findCmd.Flags().StringVar(&findIndustry, "industry", "", "primary industry classification")
	findCmd.Flags().StringVar(&findTargetFile, "target", "", "path to a JSON file describing the target")
	findCmd.Flags().StringVarP(&findOutput, "output", "o", "", "output file for comparables (csv or xlsx)")
	findCmd.Flags().StringVar(&findFormat, "format", "csv", "output format: csv or xlsx")
	findCmd.Flags().Float64Var(&findMinScore, "min-score", 0.35, "minimum validation score for admission")
	findCmd.Flags().IntVar(&findMaxFinal, "max-final", 10, "maximum comparables to return")
	rootCmd.AddCommand(findCmd)
}
