package config

// Application constants
const (
	AppName    = "tabstat"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces environment overrides, e.g. TABSTAT_PIPELINE_MIN_SUPPORT=10
	EnvPrefix = "TABSTAT"
)

// Pipeline defaults
const (
	// Outlier band, as fractions of the distribution
	DefaultLowerPercentile = 0.01
	DefaultUpperPercentile = 0.99

	// Share of rows whose target field may fail to parse before cleaning fails
	DefaultMaxParseFailureRatio = 0.25

	// Minimum records a group needs to appear in a top-N ranking
	DefaultMinSupport = 5
	DefaultTopN       = 10

	// Scatter plots draw at most this many points
	DefaultSampleSize = 500
	DefaultSampleSeed = 42
)

// Chart artifact filenames, written to the output directory
const (
	ListingsFigureFile   = "airbnb_market_analysis.png"
	ListingsHeatmapFile  = "airbnb_correlation_heatmap.png"
	AttritionFigureFile  = "hr_attrition_analysis.png"
	AttritionHeatmapFile = "correlation_heatmap.png"
)

// Default input files for each report
const (
	ListingsInputFile  = "listings.csv"
	AttritionInputFile = "WA_Fn-UseC_-HR-Employee-Attrition.csv"
)
