// Package config provides configuration management for the report binaries.
// It loads thresholds and output settings from layered sources, validates them,
// and resolves the paths a run writes to.
//
// # Configuration Sources
//
// Configuration is built in the following order, later sources winning:
//
//  1. Default values (Default)
//  2. A YAML file: the -config flag, else tabstat.yaml or configs/tabstat.yaml
//  3. Environment variables prefixed with TABSTAT_
//
// # Environment Variables
//
// Variable names follow the struct layout:
//
//	TABSTAT_LOGGING_LEVEL=debug
//	TABSTAT_PIPELINE_MIN_SUPPORT=10
//	TABSTAT_PIPELINE_PERCENTILE_METHOD=linear
//	TABSTAT_OUTPUT_DIR=out
//	TABSTAT_TELEMETRY_METRICS_FILE=out/tabstat.prom
//
// # Validation
//
// Load validates the merged result with struct tags (go-playground/validator):
// the percentile band must satisfy 0 <= lower < upper <= 1, ratios lie in [0, 1],
// enumerated settings accept only their documented values, and figures must be at
// least 9x6 in so each panel of a 3x3 grid keeps a drawable area.
//
// Column names of the datasets are not configurable; they are declared by the
// listings and attrition packages.
package config
