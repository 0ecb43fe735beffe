package pipeline

// Stage names used in logs and the stage duration metric.
const (
	StageIngest    = "ingest"
	StageFilter    = "filter"
	StageNormalize = "normalize"
	StageScore     = "score"
	StageAnalyze   = "analyze"
)

// Log field constants
const (
	LogFieldRunID = "run_id"
	LogFieldStage = "stage"
	LogFieldCount = "count"
	LogFieldTitle = "title"
	LogFieldPath  = "path"
)

// cellTrue is the boolean cell value written to datasets.
const cellTrue = "True"

// keywordSeparator joins the top keywords of an article in one cell.
const keywordSeparator = ", "
