package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/AlecAivazis/survey/v2"

	packforge "github.com/goliatone/go-packforge"
	"github.com/goliatone/go-packforge/pkg/config"
	"github.com/goliatone/go-packforge/pkg/report"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}

	source := flag.String("source", cfg.SourceRoot, "source asset tree root")
	output := flag.String("output", cfg.OutputRoot, "output root for the built package")
	generatorsDir := flag.String("generators", cfg.GeneratorsDir, "directory of external generator modules")
	version := flag.String("version", cfg.TargetVersion, "target game version for the reference dataset")
	cache := flag.String("cache", cfg.CacheDir, "reference dataset cache directory")
	interactive := flag.Bool("interactive", false, "prompt for missing settings")
	summary := flag.Bool("summary", true, "print the run summary")
	flag.Parse()

	cfg.SourceRoot = *source
	cfg.OutputRoot = *output
	cfg.GeneratorsDir = *generatorsDir
	cfg.TargetVersion = *version
	cfg.CacheDir = *cache

	if cfg.TargetVersion == "" && *interactive {
		prompt := &survey.Input{
			Message: "Target game version:",
			Help:    "selects the reference dataset snapshot used for fallback models",
		}
		if err := survey.AskOne(prompt, &cfg.TargetVersion, survey.WithValidator(survey.Required)); err != nil {
			log.Fatalf("read version: %v", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	pipe := packforge.New(cfg)
	result, err := pipe.Run(context.Background(), cfg.SourceRoot, cfg.OutputRoot)
	if err != nil {
		log.Fatalf("pipeline run failed: %v", err)
	}

	if *summary {
		out, err := report.Render(result.Assignments)
		if err != nil {
			log.Fatalf("render summary: %v", err)
		}
		fmt.Fprintln(os.Stdout, out)
	}
}
