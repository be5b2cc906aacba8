package schema

// Custom string types for type safety.
type (
	// Algorithm represents the ordering strategy used to rank records.
	Algorithm string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for run history.
	DatabaseBackend string

	// LogFormat represents the encoding of structured log events.
	LogFormat string

	// Stage represents a timed step of the pipeline.
	Stage string
)

// All ordering algorithms supported.
const (
	BubbleSort Algorithm = "bubble"
	MergeSort  Algorithm = "merge" // default
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All history backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default when enabled
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All log formats supported.
const (
	TextLog LogFormat = "text" // default
	JSONLog LogFormat = "json"
)

// Pipeline stages that are timed.
const (
	GroupingStage     Stage = "grouping"
	SortingStage      Stage = "sorting"
	MonthSortingStage Stage = "month_sorting"
)

// AllAlgorithms returns a list of all supported algorithms in run order.
var AllAlgorithms = []Algorithm{BubbleSort, MergeSort}

// ValidAlgorithms lists all valid ordering algorithms.
var ValidAlgorithms = map[Algorithm]struct{}{
	BubbleSort: {},
	MergeSort:  {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid history backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidLogFormats lists all valid log formats.
var ValidLogFormats = map[LogFormat]struct{}{
	TextLog: {},
	JSONLog: {},
}

// Default field paths, matching the daily case-count dataset the tool was built for.
const (
	DefaultYearField    FieldPath = "Date.Year"
	DefaultMonthField   FieldPath = "Date.Month"
	DefaultValueField   FieldPath = "Data.Cases"
	DefaultCountryField FieldPath = "Location.Country"
	DefaultDayField     FieldPath = "Date.Day"
)
