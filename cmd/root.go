package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"

	"github.com/coursekit/coursekit/internal/contract"
	"github.com/coursekit/coursekit/internal/iocache"
	"github.com/coursekit/coursekit/schema"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// logger is built from the validated configuration in sharedSetup.
var logger = contract.NopLogger()

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "coursekit",
	Short: "Grading and course-mailing toolkit for instructors.",
	Long: `Coursekit computes letter-grade thresholds, fills grade sheets, checks rosters
against each other, averages oral presentation grades from Google Forms and emails
feedback and corrected abstracts to students.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in .env, the config file and ENV variables if set.
func initConfig() {
	// .env only feeds the environment; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		contract.LogWarn("Could not load .env file", err)
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("COURSEKIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("log-level", "info")
	viper.SetDefault("color", "yes")
	viper.SetDefault("emoji", "yes")
	viper.SetDefault("cache-backend", schema.SQLiteBackend)
	viper.SetDefault("cache-db-connect", "")
	viper.SetDefault("ledger-backend", schema.SQLiteBackend)
	viper.SetDefault("ledger-db-connect", "")
	viper.SetDefault("max-grade", schema.DefaultMaxGrade)
	viper.SetDefault("thresholds", schema.DefaultThresholds)
	viper.SetDefault("delimiter", contract.DefaultDelimiter)
	viper.SetDefault("encoding", schema.Latin1Encoding)
	viper.SetDefault("credentials-file", contract.DefaultCredentials)
	viper.SetDefault("auth-port", contract.DefaultAuthPort)
	viper.SetDefault("form-title-prefix", schema.DefaultFormTitlePrefix)
	viper.SetDefault("instructor-matricule", schema.DefaultInstructorMatricule)
	viper.SetDefault("instructor-weight", schema.DefaultInstructorWeight)
	viper.SetDefault("attachment-pattern", schema.DefaultAbstractPattern)
}

// sharedSetup unmarshals config, runs validation and opens the stores.
func sharedSetup(_ context.Context, cmd *cobra.Command, args []string) error {
	// Flags are bound here rather than in init because several commands
	// declare the same flag names.
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Handle the command name and positional arguments (which Viper doesn't do).
	input.Command = commandName(cmd)
	input.Args = args

	// 4. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}
	color.NoColor = !cfg.UseColors
	logger = contract.NewLogger(os.Stderr, cfg.LogLevel, cfg.UseColors)

	// 5. Initialize persistence layer with validated config
	if err := iocache.InitStores(cfg.CacheBackend, cfg.CacheDBConnect, cfg.LedgerBackend, cfg.LedgerDBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// commandName returns the name used to scope validation. Subcommands of auth
// share the validation of auth itself.
func commandName(cmd *cobra.Command) string {
	if cmd.HasParent() && cmd.Parent() != rootCmd {
		return cmd.Parent().Name()
	}
	return cmd.Name()
}

// loadConfigFile handles config file loading logic common to all setup functions.
func loadConfigFile() error {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".coursekit") // Name of config file (without extension)
		viper.SetConfigType("yaml")       // We'll use YAML format
		viper.AddConfigPath(".")          // Look in the current directory
		viper.AddConfigPath("$HOME")      // Look in the home directory
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}
	return nil
}

// Execute runs the root command. An interrupt cancels the command context, which
// stops a pending authorization callback.
func Execute() error {
	ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
