// Package cmd defines the command-line interface for coursekit.
package cmd

import (
	"strings"

	"github.com/coursekit/coursekit/internal/contract"
	"github.com/coursekit/coursekit/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(thresholdsCmd)
	rootCmd.AddCommand(fillCmd)
	rootCmd.AddCommand(correspondCmd)
	rootCmd.AddCommand(oralCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(abstractsCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(ledgerCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the auth subcommands to the parent auth command
	authCmd.AddCommand(authStatusCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the ledger subcommands to the parent ledger command
	ledgerCmd.AddCommand(ledgerClearCmd)
	ledgerCmd.AddCommand(ledgerStatusCmd)
	ledgerCmd.AddCommand(ledgerExportCmd)
	ledgerCmd.AddCommand(ledgerMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().Bool("detail", false, "Print extra detail such as the band distribution")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("emoji", "yes", "Prefix console messages with emojis (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("ledger-backend", string(schema.SQLiteBackend), "Grade ledger backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("ledger-db-connect", "", "Database connection string for the grade ledger (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Local flags are bound to Viper by sharedSetup for the command being run
	thresholdsCmd.Flags().Float64("max-grade", schema.DefaultMaxGrade, "Highest possible grade")
	thresholdsCmd.Flags().StringSlice("thresholds", strings.Split(schema.DefaultThresholds, ","), "LABEL:FRACTION pairs, comma separated or repeated")
	thresholdsCmd.Flags().Bool("record", false, "Record the cutoffs in the grade ledger")

	fillCmd.Flags().String("source", "", "Sheet holding the ids and values to copy (.xlsx or .csv)")
	fillCmd.Flags().String("dest", "", "Sheet receiving the values (.xlsx or .csv)")
	fillCmd.Flags().String("out", "", "Output file (default <dest>_modif.<ext>)")
	fillCmd.Flags().String("sheet-src", "", "Source worksheet (default: active sheet)")
	fillCmd.Flags().String("sheet-dest", "", "Destination worksheet (default: active sheet)")
	fillCmd.Flags().Int("col-id-src", 3, "1-based id column of the source")
	fillCmd.Flags().Int("col-val-src", 7, "1-based value column of the source")
	fillCmd.Flags().Int("row-start-src", 1, "Number of header rows of the source")
	fillCmd.Flags().Int("col-id-dest", 1, "1-based id column of the destination")
	fillCmd.Flags().Int("col-val-dest", 4, "1-based value column of the destination")
	addCSVFlags(fillCmd.Flags())

	correspondCmd.Flags().Int("column1", 0, "0-based column of the first file")
	correspondCmd.Flags().Int("column2", 0, "0-based column of the second file")
	correspondCmd.Flags().String("delimiter1", contract.DefaultDelimiter, "Delimiter of the first file")
	correspondCmd.Flags().String("delimiter2", contract.DefaultDelimiter, "Delimiter of the second file")
	correspondCmd.Flags().String("encoding", string(schema.Latin1Encoding), "Encoding of both files: utf-8 or latin-1")

	addGoogleFlags(authCmd.Flags())

	addGoogleFlags(oralCmd.Flags())
	addFormsFlags(oralCmd.Flags())

	addGoogleFlags(feedbackCmd.Flags())
	addFormsFlags(feedbackCmd.Flags())
	addRosterFlags(feedbackCmd.Flags())
	addMailFlags(feedbackCmd.Flags())
	feedbackCmd.Flags().String("spreadsheet-id", "", "Spreadsheet listing the presentations")
	feedbackCmd.Flags().String("sheet-range", contract.DefaultSheetRange, "Range of the presentation sheet")
	feedbackCmd.Flags().Int("sheet-col-matricule", 1, "0-based presenter matricule column")
	feedbackCmd.Flags().Int("sheet-col-matricule2", 2, "0-based co-presenter matricule column (-1 disables)")
	feedbackCmd.Flags().Int("sheet-col-url", 3, "0-based form URL column")
	feedbackCmd.Flags().String("feedback-question-title", "", "Title of the feedback question")
	feedbackCmd.Flags().String("matricule-question-title", contract.DefaultMatriculeTitle, "Title of the evaluator matricule question")
	feedbackCmd.Flags().Bool("criteria", false, "Include per-criterion averages")
	feedbackCmd.Flags().Int("criteria-first", 0, "0-based index of the first criterion question")
	feedbackCmd.Flags().Int("criteria-last", 0, "0-based index of the last criterion question")
	feedbackCmd.Flags().BoolP("yes", "y", false, "Send without asking for confirmation")

	addGoogleFlags(abstractsCmd.Flags())
	addRosterFlags(abstractsCmd.Flags())
	addMailFlags(abstractsCmd.Flags())
	abstractsCmd.Flags().String("attachment-dir", "", "Directory holding the corrected abstracts")
	abstractsCmd.Flags().String("attachment-pattern", schema.DefaultAbstractPattern, "Attachment file name, {id} is replaced by the matricule")
	abstractsCmd.Flags().String("cc", "", "Comma separated addresses copied on every email")
	abstractsCmd.Flags().String("log-to", "", "Comma separated addresses receiving the summary")
	abstractsCmd.Flags().String("subject", "", "Subject of the emails")
	abstractsCmd.Flags().String("instructor-name", "", "Instructor name used to sign the emails")

	ledgerMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(ledgerMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding ledger migrate flags", err)
	}
}

// addCSVFlags adds the dialect flags of delimited inputs.
func addCSVFlags(fs *pflag.FlagSet) {
	fs.String("delimiter", contract.DefaultDelimiter, "Delimiter of CSV files (\\t or tab for tabs)")
	fs.String("encoding", string(schema.Latin1Encoding), "Encoding of CSV files: utf-8 or latin-1")
}

// addGoogleFlags adds the OAuth settings shared by every Google-backed command.
func addGoogleFlags(fs *pflag.FlagSet) {
	fs.String("credentials-file", contract.DefaultCredentials, "OAuth client secrets file")
	fs.Int("auth-port", contract.DefaultAuthPort, "Loopback port of the authorization callback")
}

// addFormsFlags adds the settings used to read presentation forms.
func addFormsFlags(fs *pflag.FlagSet) {
	fs.String("forms-folder-id", "", "Drive folder holding the presentation forms")
	fs.String("form-title-prefix", schema.DefaultFormTitlePrefix, "Prefix trimmed from form titles to get the students")
	fs.String("instructor-matricule", schema.DefaultInstructorMatricule, "Matricule the instructor enters in the forms")
	fs.Float64("instructor-weight", schema.DefaultInstructorWeight, "Weight of the instructor grade within [0, 1]")
	fs.String("instructor-name", "", "Instructor name used in emails")
}

// addRosterFlags adds the class roster settings.
func addRosterFlags(fs *pflag.FlagSet) {
	fs.String("roster-csv", "", "Class roster CSV")
	fs.Int("roster-col-matricule", 0, "0-based matricule column of the roster")
	fs.Int("roster-col-email", 3, "0-based email column of the roster")
	fs.String("roster-delimiter", contract.DefaultDelimiter, "Delimiter of the roster")
	fs.String("encoding", string(schema.Latin1Encoding), "Encoding of the roster: utf-8 or latin-1")
}

// addMailFlags adds the settings shared by the mailers.
func addMailFlags(fs *pflag.FlagSet) {
	fs.String("course-code", "", "Course code used in subjects and bodies")
	fs.String("sender", "", "From address (default: the authorized account)")
	fs.Bool("dry-run", false, "Print the emails without sending them")
}
