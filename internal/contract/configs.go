package contract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/coursekit/coursekit/schema"
)

// Default values for configuration.
const (
	DefaultPrecision      = 2
	DefaultAuthPort       = 8080
	DefaultSheetRange     = "Sheet1"
	DefaultCredentials    = "client_secrets.json"
	DefaultOralOutputFile = "grades_oral.csv"
	DefaultMatriculeTitle = "Votre matricule étudiant :"
	DefaultDelimiter      = ";"
)

// Command names used to scope validation.
const (
	ThresholdsCommand = "thresholds"
	FillCommand       = "fill"
	CorrespondCommand = "correspond"
	OralCommand       = "oral"
	FeedbackCommand   = "feedback"
	AbstractsCommand  = "abstracts"
	AuthCommand       = "auth"
	MCPCommand        = "mcp"
)

// Config holds the runtime configuration for a command.
// This struct is the "final, validated" config.
type Config struct {
	Command string

	Output     schema.OutputMode
	OutputFile string
	Precision  int
	Width      int // Terminal width override (0 = auto-detect)
	Detail     bool
	LogLevel   LogLevel
	UseColors  bool
	UseEmojis  bool
	DryRun     bool
	AssumeYes  bool
	Record     bool

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	LedgerBackend   schema.DatabaseBackend
	LedgerDBConnect string // Please use env var as this is plaintext

	// Threshold calculator
	GradesFile string
	MaxGrade   float64
	Thresholds []schema.Threshold

	// Spreadsheet matcher (1-based columns and rows)
	SourceFile  string
	DestFile    string
	OutFile     string
	SheetSrc    string
	SheetDest   string
	ColIDSrc    int
	ColValSrc   int
	RowStartSrc int
	ColIDDest   int
	ColValDest  int

	// CSV correspondence (0-based columns)
	File1      string
	File2      string
	Column1    int
	Column2    int
	Delimiter1 rune
	Delimiter2 rune
	Encoding   schema.FileEncoding

	// Google Workspace
	CredentialsFile     string
	AuthPort            int
	FormsFolderID       string
	FormTitlePrefix     string
	InstructorMatricule string
	InstructorWeight    float64
	InstructorName      string

	// Feedback mailer
	Matricule              string
	SpreadsheetID          string
	SheetRange             string
	SheetColMatricule      int
	SheetColMatricule2     int
	SheetColURL            int
	FeedbackQuestionTitle  string
	MatriculeQuestionTitle string
	Criteria               bool
	CriteriaFirst          int
	CriteriaLast           int
	CourseCode             string
	Sender                 string

	// Roster CSV shared by the mailers (0-based columns)
	RosterCSV          string
	RosterColMatricule int
	RosterColEmail     int
	RosterDelimiter    rune

	// Abstract mailer
	AttachmentDir     string
	AttachmentPattern string
	Cc                []string
	LogTo             []string
	Subject           string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// These are set manually from the command and positional args, so no tag
	Command string
	Args    []string

	// --- Fields from rootCmd.PersistentFlags() ---
	Output          string `mapstructure:"output"`
	OutputFile      string `mapstructure:"output-file"`
	Precision       int    `mapstructure:"precision"`
	Width           int    `mapstructure:"width"`
	Detail          bool   `mapstructure:"detail"`
	LogLevel        string `mapstructure:"log-level"`
	Color           string `mapstructure:"color"`
	Emoji           string `mapstructure:"emoji"`
	CacheBackend    string `mapstructure:"cache-backend"`
	CacheDBConnect  string `mapstructure:"cache-db-connect"`
	LedgerBackend   string `mapstructure:"ledger-backend"`
	LedgerDBConnect string `mapstructure:"ledger-db-connect"`

	// --- Fields from thresholdsCmd.Flags() ---
	MaxGrade   float64  `mapstructure:"max-grade"`
	Thresholds []string `mapstructure:"thresholds"`
	Record     bool     `mapstructure:"record"`

	// --- Fields from fillCmd.Flags() ---
	Source      string `mapstructure:"source"`
	Dest        string `mapstructure:"dest"`
	Out         string `mapstructure:"out"`
	SheetSrc    string `mapstructure:"sheet-src"`
	SheetDest   string `mapstructure:"sheet-dest"`
	ColIDSrc    int    `mapstructure:"col-id-src"`
	ColValSrc   int    `mapstructure:"col-val-src"`
	RowStartSrc int    `mapstructure:"row-start-src"`
	ColIDDest   int    `mapstructure:"col-id-dest"`
	ColValDest  int    `mapstructure:"col-val-dest"`

	// --- CSV dialect used by fill for delimited files ---
	Delimiter string `mapstructure:"delimiter"`

	// --- Fields from correspondCmd.Flags() ---
	Column1    int    `mapstructure:"column1"`
	Column2    int    `mapstructure:"column2"`
	Delimiter1 string `mapstructure:"delimiter1"`
	Delimiter2 string `mapstructure:"delimiter2"`
	Encoding   string `mapstructure:"encoding"`

	// --- Google Workspace settings, usually from the config file ---
	CredentialsFile     string  `mapstructure:"credentials-file"`
	AuthPort            int     `mapstructure:"auth-port"`
	FormsFolderID       string  `mapstructure:"forms-folder-id"`
	FormTitlePrefix     string  `mapstructure:"form-title-prefix"`
	InstructorMatricule string  `mapstructure:"instructor-matricule"`
	InstructorWeight    float64 `mapstructure:"instructor-weight"`
	InstructorName      string  `mapstructure:"instructor-name"`

	// --- Fields from feedbackCmd.Flags() ---
	SpreadsheetID          string `mapstructure:"spreadsheet-id"`
	SheetRange             string `mapstructure:"sheet-range"`
	SheetColMatricule      int    `mapstructure:"sheet-col-matricule"`
	SheetColMatricule2     int    `mapstructure:"sheet-col-matricule2"`
	SheetColURL            int    `mapstructure:"sheet-col-url"`
	FeedbackQuestionTitle  string `mapstructure:"feedback-question-title"`
	MatriculeQuestionTitle string `mapstructure:"matricule-question-title"`
	Criteria               bool   `mapstructure:"criteria"`
	CriteriaFirst          int    `mapstructure:"criteria-first"`
	CriteriaLast           int    `mapstructure:"criteria-last"`
	CourseCode             string `mapstructure:"course-code"`
	Sender                 string `mapstructure:"sender"`
	DryRun                 bool   `mapstructure:"dry-run"`
	Yes                    bool   `mapstructure:"yes"`

	// --- Roster settings shared by the mailers ---
	RosterCSV          string `mapstructure:"roster-csv"`
	RosterColMatricule int    `mapstructure:"roster-col-matricule"`
	RosterColEmail     int    `mapstructure:"roster-col-email"`
	RosterDelimiter    string `mapstructure:"roster-delimiter"`

	// --- Fields from abstractsCmd.Flags() ---
	AttachmentDir     string `mapstructure:"attachment-dir"`
	AttachmentPattern string `mapstructure:"attachment-pattern"`
	Cc                string `mapstructure:"cc"`
	LogTo             string `mapstructure:"log-to"`
	Subject           string `mapstructure:"subject"`
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	cfg.Command = input.Command
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}

	switch input.Command {
	case ThresholdsCommand:
		return processThresholds(cfg, input)
	case FillCommand:
		return processFill(cfg, input)
	case CorrespondCommand:
		return processCorrespond(cfg, input)
	case OralCommand:
		return processOral(cfg, input)
	case FeedbackCommand:
		return processFeedback(cfg, input)
	case AbstractsCommand:
		return processAbstracts(cfg, input)
	case AuthCommand:
		return processGoogle(cfg, input)
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseDelimiter turns a flag value into a single delimiter rune. "\t" and "tab" select a tab.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case `\t`, "tab":
		return '\t', nil
	case "":
		return 0, fmt.Errorf("delimiter cannot be empty")
	}
	runes := []rune(s)
	if len(runes) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character (received %q)", s)
	}
	if runes[0] == '"' || runes[0] == '\r' || runes[0] == '\n' {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}
	return runes[0], nil
}

// DefaultFillOutput derives "<dest>_modif.<ext>" from the destination path.
func DefaultFillOutput(dest string) string {
	ext := filepath.Ext(dest)
	return strings.TrimSuffix(dest, ext) + "_modif" + ext
}

// validateSimpleInputs processes and validates the flags shared by every command.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Detail = input.Detail
	cfg.Width = input.Width
	cfg.DryRun = input.DryRun
	cfg.AssumeYes = input.Yes
	cfg.Record = input.Record

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	level, err := ParseLogLevel(input.LogLevel)
	if err != nil {
		return err
	}
	cfg.LogLevel = level

	if input.Precision < 0 || input.Precision > 4 {
		return fmt.Errorf("precision must be between 0 and 4 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	if input.Width < 0 {
		return fmt.Errorf("width cannot be negative (received %d)", input.Width)
	}

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}
	return nil
}

// validateBackendConfigs validates cache and ledger backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	cfg.LedgerBackend = schema.DatabaseBackend(strings.ToLower(input.LedgerBackend))
	if cfg.LedgerBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.LedgerBackend]; !ok {
		return fmt.Errorf("invalid ledger backend '%s'. must be sqlite, mysql, postgresql, none", input.LedgerBackend)
	}
	cfg.LedgerDBConnect = input.LedgerDBConnect
	if err := ValidateDatabaseConnectionString(cfg.LedgerBackend, cfg.LedgerDBConnect); err != nil {
		return err
	}

	if cfg.CacheBackend != cfg.LedgerBackend || cfg.CacheBackend == schema.NoneBackend {
		return nil
	}
	cacheTarget, ledgerTarget := cfg.CacheDBConnect, cfg.LedgerDBConnect
	if cfg.CacheBackend == schema.SQLiteBackend {
		// Resolve default paths to catch conflicts between them
		if cacheTarget == "" {
			cacheTarget = GetCacheDBFilePath()
		}
		if ledgerTarget == "" {
			ledgerTarget = GetLedgerDBFilePath()
		}
	}
	if cacheTarget == ledgerTarget {
		return fmt.Errorf("cache and ledger storage must use different databases. Both resolve to %q", cacheTarget)
	}
	return nil
}

func processThresholds(cfg *Config, input *ConfigRawInput) error {
	if len(input.Args) != 1 {
		return fmt.Errorf("thresholds requires exactly one grades file")
	}
	cfg.GradesFile = input.Args[0]

	if input.MaxGrade <= 0 {
		return fmt.Errorf("max-grade must be greater than 0 (received %v)", input.MaxGrade)
	}
	cfg.MaxGrade = input.MaxGrade

	// Repeated flags and comma lists both arrive as slice entries
	thresholds, err := ParseThresholds(strings.Join(input.Thresholds, ","))
	if err != nil {
		return err
	}
	cfg.Thresholds = thresholds
	return nil
}

func processFill(cfg *Config, input *ConfigRawInput) error {
	if input.Source == "" || input.Dest == "" {
		return fmt.Errorf("fill requires both --source and --dest")
	}
	cfg.SourceFile = input.Source
	cfg.DestFile = input.Dest
	cfg.OutFile = input.Out
	if cfg.OutFile == "" {
		cfg.OutFile = DefaultFillOutput(input.Dest)
	}
	if !strings.EqualFold(filepath.Ext(cfg.OutFile), filepath.Ext(cfg.DestFile)) {
		return fmt.Errorf("output file %q must have the same extension as the destination %q", cfg.OutFile, cfg.DestFile)
	}
	cfg.SheetSrc = input.SheetSrc
	cfg.SheetDest = input.SheetDest

	positives := []struct {
		name  string
		value int
	}{
		{"col-id-src", input.ColIDSrc},
		{"col-val-src", input.ColValSrc},
		{"col-id-dest", input.ColIDDest},
		{"col-val-dest", input.ColValDest},
	}
	for _, p := range positives {
		if p.value < 1 {
			return fmt.Errorf("%s is 1-based and must be at least 1 (received %d)", p.name, p.value)
		}
	}
	if input.RowStartSrc < 0 {
		return fmt.Errorf("row-start-src cannot be negative (received %d)", input.RowStartSrc)
	}
	if input.ColIDDest == input.ColValDest {
		return fmt.Errorf("col-id-dest and col-val-dest must differ")
	}
	cfg.ColIDSrc = input.ColIDSrc
	cfg.ColValSrc = input.ColValSrc
	cfg.RowStartSrc = input.RowStartSrc
	cfg.ColIDDest = input.ColIDDest
	cfg.ColValDest = input.ColValDest

	return processCSVDialect(cfg, input.Delimiter, input.Encoding)
}

func processCorrespond(cfg *Config, input *ConfigRawInput) error {
	if len(input.Args) != 2 {
		return fmt.Errorf("correspond requires exactly two files")
	}
	cfg.File1 = input.Args[0]
	cfg.File2 = input.Args[1]
	if input.Column1 < 0 || input.Column2 < 0 {
		return fmt.Errorf("columns are 0-based and cannot be negative")
	}
	cfg.Column1 = input.Column1
	cfg.Column2 = input.Column2

	var err error
	if cfg.Delimiter2, err = ParseDelimiter(input.Delimiter2); err != nil {
		return fmt.Errorf("invalid --delimiter2: %w", err)
	}
	return processCSVDialect(cfg, input.Delimiter1, input.Encoding)
}

// processCSVDialect validates the delimiter and encoding used for CSV inputs.
// The delimiter lands in Delimiter1.
func processCSVDialect(cfg *Config, delimiter, encoding string) error {
	var err error
	if cfg.Delimiter1, err = ParseDelimiter(delimiter); err != nil {
		return fmt.Errorf("invalid delimiter: %w", err)
	}
	return processEncoding(cfg, encoding)
}

func processEncoding(cfg *Config, encoding string) error {
	cfg.Encoding = schema.FileEncoding(strings.ToLower(encoding))
	if _, ok := schema.ValidEncodings[cfg.Encoding]; !ok {
		return fmt.Errorf("invalid encoding '%s'. must be utf-8 or latin-1", encoding)
	}
	return nil
}

// processGoogle validates the settings shared by every command talking to Google APIs.
func processGoogle(cfg *Config, input *ConfigRawInput) error {
	if input.CredentialsFile == "" {
		return fmt.Errorf("credentials-file cannot be empty")
	}
	cfg.CredentialsFile = input.CredentialsFile
	if input.AuthPort <= 0 || input.AuthPort > 65535 {
		return fmt.Errorf("auth-port must be a valid TCP port (received %d)", input.AuthPort)
	}
	cfg.AuthPort = input.AuthPort
	return nil
}

// processForms validates the settings used to read peer-evaluation forms.
func processForms(cfg *Config, input *ConfigRawInput) error {
	if err := processGoogle(cfg, input); err != nil {
		return err
	}
	if input.FormsFolderID == "" {
		return fmt.Errorf("forms-folder-id is required")
	}
	cfg.FormsFolderID = input.FormsFolderID
	cfg.FormTitlePrefix = input.FormTitlePrefix
	cfg.InstructorName = input.InstructorName

	if input.InstructorMatricule == "" || !schema.IsDigits(input.InstructorMatricule) {
		return fmt.Errorf("instructor-matricule must be numeric (received %q)", input.InstructorMatricule)
	}
	if schema.IsValidMatricule(input.InstructorMatricule) {
		return fmt.Errorf("instructor-matricule %q would be mistaken for a student matricule", input.InstructorMatricule)
	}
	cfg.InstructorMatricule = input.InstructorMatricule

	if input.InstructorWeight < 0 || input.InstructorWeight > 1 {
		return fmt.Errorf("instructor-weight must be within [0, 1] (received %v)", input.InstructorWeight)
	}
	cfg.InstructorWeight = input.InstructorWeight
	return nil
}

func processOral(cfg *Config, input *ConfigRawInput) error {
	if err := processForms(cfg, input); err != nil {
		return err
	}
	if cfg.OutputFile == "" && cfg.Output == schema.CSVOut {
		cfg.OutputFile = DefaultOralOutputFile
	}
	return nil
}

func processFeedback(cfg *Config, input *ConfigRawInput) error {
	if len(input.Args) != 1 {
		return fmt.Errorf("feedback requires exactly one matricule")
	}
	if !schema.IsValidMatricule(input.Args[0]) {
		return fmt.Errorf("invalid matricule %q: expected %d digits", input.Args[0], schema.MatriculeLength)
	}
	cfg.Matricule = input.Args[0]

	if err := processForms(cfg, input); err != nil {
		return err
	}
	if input.SpreadsheetID == "" {
		return fmt.Errorf("spreadsheet-id is required")
	}
	cfg.SpreadsheetID = input.SpreadsheetID
	cfg.SheetRange = input.SheetRange
	if cfg.SheetRange == "" {
		cfg.SheetRange = DefaultSheetRange
	}
	if input.SheetColMatricule < 0 || input.SheetColURL < 0 {
		return fmt.Errorf("sheet columns are 0-based and cannot be negative")
	}
	cfg.SheetColMatricule = input.SheetColMatricule
	cfg.SheetColMatricule2 = input.SheetColMatricule2
	cfg.SheetColURL = input.SheetColURL

	if strings.TrimSpace(input.FeedbackQuestionTitle) == "" {
		return fmt.Errorf("feedback-question-title is required")
	}
	cfg.FeedbackQuestionTitle = input.FeedbackQuestionTitle
	cfg.MatriculeQuestionTitle = input.MatriculeQuestionTitle

	cfg.Criteria = input.Criteria
	if cfg.Criteria && (input.CriteriaFirst < 0 || input.CriteriaLast < input.CriteriaFirst) {
		return fmt.Errorf("invalid criteria range [%d, %d]", input.CriteriaFirst, input.CriteriaLast)
	}
	cfg.CriteriaFirst = input.CriteriaFirst
	cfg.CriteriaLast = input.CriteriaLast
	cfg.CourseCode = input.CourseCode
	cfg.Sender = input.Sender

	return processRoster(cfg, input)
}

func processAbstracts(cfg *Config, input *ConfigRawInput) error {
	if err := processGoogle(cfg, input); err != nil {
		return err
	}
	if input.AttachmentDir == "" {
		return fmt.Errorf("attachment-dir is required")
	}
	cfg.AttachmentDir = input.AttachmentDir
	if !strings.Contains(input.AttachmentPattern, "{id}") {
		return fmt.Errorf("attachment-pattern must contain the {id} placeholder (received %q)", input.AttachmentPattern)
	}
	cfg.AttachmentPattern = input.AttachmentPattern
	cfg.Cc = SplitList(input.Cc)
	cfg.LogTo = SplitList(input.LogTo)
	if strings.TrimSpace(input.Subject) == "" {
		return fmt.Errorf("subject is required")
	}
	cfg.Subject = input.Subject
	cfg.Sender = input.Sender
	cfg.CourseCode = input.CourseCode
	cfg.InstructorName = input.InstructorName
	return processRoster(cfg, input)
}

// processRoster validates the roster CSV location and layout.
func processRoster(cfg *Config, input *ConfigRawInput) error {
	if input.RosterCSV == "" {
		return fmt.Errorf("roster-csv is required")
	}
	cfg.RosterCSV = input.RosterCSV
	if input.RosterColMatricule < 0 || input.RosterColEmail < 0 {
		return fmt.Errorf("roster columns are 0-based and cannot be negative")
	}
	cfg.RosterColMatricule = input.RosterColMatricule
	cfg.RosterColEmail = input.RosterColEmail

	var err error
	if cfg.RosterDelimiter, err = ParseDelimiter(input.RosterDelimiter); err != nil {
		return fmt.Errorf("invalid --roster-delimiter: %w", err)
	}
	return processEncoding(cfg, input.Encoding)
}
