// Package schema holds the data types, constants and sentinel errors shared by every coursekit package.
package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and the ledger.
	DatabaseBackend string

	// AnswerKind classifies a single form answer.
	AnswerKind string

	// FileEncoding represents the character encoding of a delimited text file.
	FileEncoding string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Answer kinds found in a peer-evaluation response.
const (
	InstructorAnswer AnswerKind = "instructor"
	MatriculeAnswer  AnswerKind = "matricule"
	ScoreAnswer      AnswerKind = "score"
	CommentAnswer    AnswerKind = "comment"
)

// Encodings accepted for CSV inputs.
const (
	UTF8Encoding   FileEncoding = "utf-8"
	Latin1Encoding FileEncoding = "latin-1" // default, matches the registrar exports
)

// Domain constants.
const (
	MatriculeLength            = 7
	DefaultInstructorMatricule = "000000"
	DefaultMaxGrade            = 20.0
	DefaultInstructorWeight    = 0.5
	BelowLowestLabel           = "below"
	DefaultThresholds          = "A*:0.9,A:0.7,B+:0.5,B:0.3,C+:0.2,C:0.1,D+:0.05,F:0.01"
	DefaultFormTitlePrefix     = "Étudiants : "
	DefaultAbstractPattern     = "ABSTRACT_{id}_JCA.docx"
	FormMimeType               = "application/vnd.google-apps.form"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidEncodings lists all valid CSV encodings.
var ValidEncodings = map[FileEncoding]struct{}{
	UTF8Encoding:   {},
	Latin1Encoding: {},
}
