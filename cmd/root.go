package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"github.com/joescharf/tracker/internal/logging"
	"github.com/joescharf/tracker/internal/output"
	"github.com/joescharf/tracker/internal/store"
	"github.com/joescharf/tracker/internal/tracker"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	logger    *zap.Logger
	dataStore store.Store

	verbose bool
	jsonOut bool
	orgFlag string
)

var rootCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Tracker - multi-tenant projects, tasks and comments",
	Long: `tracker keeps projects, tasks and task comments for many organizations.

Every read and write is scoped by an organization slug. The same data is
served over GraphQL and REST by 'tracker serve' and to agents by 'tracker mcp'.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	err := rootCmd.Execute()
	if logger != nil {
		_ = logger.Sync()
	}
	if dataStore != nil {
		_ = dataStore.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Print results as JSON")
	rootCmd.PersistentFlags().StringVar(&orgFlag, "org", "", "Organization slug (default: config default_org)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/tracker/config.yaml)")
}

func initConfig() {
	// A .env in the working directory is optional.
	_ = godotenv.Load()

	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if dir, err := configDirFunc(); err == nil {
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("TRACKER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	_ = viper.ReadInConfig()
}

// setDefaults registers every config key so env overrides resolve.
func setDefaults() {
	stateDir, err := configDirFunc()
	if err != nil {
		stateDir = "."
	}

	viper.SetDefault("state_dir", stateDir)
	viper.SetDefault("db.driver", "sqlite")
	viper.SetDefault("db.path", filepath.Join(stateDir, "tracker.db"))
	viper.SetDefault("db.dsn", "")
	viper.SetDefault("db.max_open_conns", 10)
	viper.SetDefault("db.max_idle_conns", 5)
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.environment", "development")
	viper.SetDefault("default_org", "")
	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("anthropic.model", "")
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.JSON = jsonOut

	level := viper.GetString("log.level")
	if verbose {
		level = "debug"
	}
	l, err := logging.New(logging.Config{
		Level:       level,
		Environment: viper.GetString("log.environment"),
	})
	if err != nil {
		l = zap.NewNop()
	}
	logger = l
	zap.ReplaceGlobals(logger)

	// The store opens lazily so config/version run without a database.
}

// commandContext carries the CLI logger for service calls.
func commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return logging.WithContext(ctx, zap.L())
}

// getStore returns the shared store, initializing it on first call.
func getStore() (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	var (
		s   store.Store
		err error
	)
	switch driver := viper.GetString("db.driver"); driver {
	case "sqlite", "":
		s, err = store.NewSQLiteStore(viper.GetString("db.path"))
	case "postgres":
		s, err = store.NewPostgresStore(store.PostgresConfig{
			DSN:          viper.GetString("db.dsn"),
			MaxOpenConns: viper.GetInt("db.max_open_conns"),
			MaxIdleConns: viper.GetInt("db.max_idle_conns"),
			LogLevel:     gormlogger.Warn,
		})
	default:
		return nil, fmt.Errorf("unknown db.driver %q (want sqlite or postgres)", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := s.Migrate(context.Background()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dataStore = s
	return dataStore, nil
}

// getService wraps the shared store in the tracker service.
func getService(opts ...tracker.Option) (*tracker.Service, error) {
	s, err := getStore()
	if err != nil {
		return nil, err
	}
	return tracker.NewService(s, opts...), nil
}

// resolveOrg returns the --org flag, falling back to default_org.
func resolveOrg() (string, error) {
	if orgFlag != "" {
		return orgFlag, nil
	}
	if org := viper.GetString("default_org"); org != "" {
		return org, nil
	}
	return "", fmt.Errorf("no organization: pass --org or set default_org (TRACKER_DEFAULT_ORG)")
}
