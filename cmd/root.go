package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/TFMV/flash/internal/config"
	"github.com/TFMV/flash/internal/console"
	"github.com/TFMV/flash/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	version = "0.1.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "flash [options] [--] <command...>",
	Short: "Watch files and run a command when they change",
	Long: `flash watches directories or glob patterns for changes and runs a command
whenever a matching file is created, modified or removed.

Examples:
  flash -w src -e js,ts -- npm run build
  flash -w "src/**/views" -p "**/*.html" -- make templates
  flash -r -n -i "**/target/**" -- cargo run
  flash -f .flash.yaml`,
	Version:       version,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper(), args)
		if err != nil {
			return err
		}

		logger := logging.New(cfg.LogLevel)
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runWatch(ctx, cfg, console.New(os.Stdout), logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

// flagNames lists the flags bound into viper.
var flagNames = []string{
	"watch", "ext", "pattern", "ignore", "debounce", "initial", "clear",
	"restart", "stats", "stats-interval", "fast-startup", "backend",
	"verbose", "silent",
}

var envKeyReplacer = strings.NewReplacer("-", "_")

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.Flags()
	registerFlags(flags)

	// Bind flags to viper
	for _, name := range flagNames {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}

func registerFlags(flags *pflag.FlagSet) {
	// Everything after the first positional argument belongs to the command.
	flags.SetInterspersed(false)

	flags.StringArrayP("watch", "w", []string{config.DefaultWatch}, "Directory or glob pattern to watch (repeatable)")
	flags.StringP("ext", "e", "", "File extensions to watch, comma-separated (e.g. js,ts)")
	flags.StringArrayP("pattern", "p", nil, "Glob pattern a changed path must match (repeatable)")
	flags.StringArrayP("ignore", "i", nil, "Glob pattern to ignore (repeatable)")
	flags.Uint64P("debounce", "d", config.DefaultDebounce, "Debounce window in milliseconds")
	flags.BoolP("initial", "n", false, "Run the command once on startup")
	flags.BoolP("clear", "c", false, "Clear the console before each run")
	flags.StringVarP(&cfgFile, "config", "f", "", "YAML config file (default: .flash.yaml in the working or home directory)")
	flags.BoolP("restart", "r", false, "Keep the command running and restart it on change")
	flags.Bool("stats", false, "Print performance statistics periodically")
	flags.Uint64("stats-interval", config.DefaultStatsInterval, "Statistics interval in seconds")
	flags.Bool("fast-startup", false, "Watch the static base of glob patterns instead of resolving them")
	flags.String("backend", config.DefaultBackend, "Watch backend (fsnotify|notify)")
	flags.BoolP("verbose", "v", false, "Enable verbose logging")
	flags.Bool("silent", false, "Disable all logging except errors")
}

// initConfig makes every flag settable through FLASH_* environment variables.
func initConfig() {
	viper.SetEnvPrefix("FLASH")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()
}

// loadConfig builds the run configuration from flags and environment, merges
// the config file when there is one and validates the result.
func loadConfig(v *viper.Viper, args []string) (config.Config, error) {
	cfg := configFromViper(v, args)

	if path := config.Discover(cfgFile, config.SearchDirs()...); path != "" {
		f, err := config.LoadFile(path)
		if err != nil {
			return cfg, err
		}
		config.Merge(&cfg, f)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func configFromViper(v *viper.Viper, args []string) config.Config {
	cfg := config.Default()
	cfg.Command = args
	if watch := v.GetStringSlice("watch"); len(watch) > 0 {
		cfg.Watch = watch
	}
	cfg.Ext = v.GetString("ext")
	if patterns := v.GetStringSlice("pattern"); len(patterns) > 0 {
		cfg.Patterns = patterns
	}
	if ignore := v.GetStringSlice("ignore"); len(ignore) > 0 {
		cfg.Ignore = ignore
	}
	cfg.Debounce = v.GetUint64("debounce")
	cfg.Initial = v.GetBool("initial")
	cfg.Clear = v.GetBool("clear")
	cfg.Restart = v.GetBool("restart")
	cfg.Stats = v.GetBool("stats")
	cfg.StatsInterval = v.GetUint64("stats-interval")
	cfg.FastStartup = v.GetBool("fast-startup")
	cfg.Backend = v.GetString("backend")

	switch {
	case v.GetBool("verbose"):
		cfg.LogLevel = logging.LogLevelDebug
	case v.GetBool("silent"):
		cfg.LogLevel = logging.LogLevelError
	default:
		cfg.LogLevel = logging.LogLevelInfo
	}
	return cfg
}
