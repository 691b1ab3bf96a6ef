package app

import (
	"context"
	"log/slog"

	"tabstat/internal/attrition"
	"tabstat/internal/charts"
	"tabstat/internal/config"
	"tabstat/internal/dataset"
	"tabstat/internal/listings"
	"tabstat/internal/pipeline"
	"tabstat/internal/report"
)

// Analysis is the computed result of a job
type Analysis interface {
	Charts() ([]charts.Chart, error)
	Document(artifacts []report.Artifact) *report.Document
}

// Input is what the analyze stage receives
type Input struct {
	Raw      *dataset.Dataset
	Clean    *dataset.Dataset
	Cleaning pipeline.CleanReport
	Pipeline config.PipelineConfig
	Logger   *slog.Logger
}

// Job describes one report: what it reads, how it cleans and what it computes
type Job struct {
	Name         string
	DefaultInput string
	Schema       dataset.Schema
	Cleaning     func(config.PipelineConfig) pipeline.CleanerConfig
	Analyze      func(ctx context.Context, in Input) (Analysis, error)
}

// ListingsJob is the rental market report
func ListingsJob() Job {
	return Job{
		Name:         "listings",
		DefaultInput: config.ListingsInputFile,
		Schema:       listings.Schema(),
		Cleaning:     listings.CleanerConfig,
		Analyze: func(ctx context.Context, in Input) (Analysis, error) {
			a, err := listings.Analyze(ctx, in.Logger, in.Raw, in.Clean, in.Cleaning, in.Pipeline)
			if err != nil {
				return nil, err
			}
			return a, nil
		},
	}
}

// AttritionJob is the employee attrition report
func AttritionJob() Job {
	return Job{
		Name:         "attrition",
		DefaultInput: config.AttritionInputFile,
		Schema:       attrition.Schema(),
		Cleaning:     attrition.CleanerConfig,
		Analyze: func(ctx context.Context, in Input) (Analysis, error) {
			a, err := attrition.Analyze(ctx, in.Logger, in.Raw, in.Clean, in.Cleaning, in.Pipeline)
			if err != nil {
				return nil, err
			}
			return a, nil
		},
	}
}
