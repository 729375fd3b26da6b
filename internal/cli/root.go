package cli

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lazypower/fibday/internal/config"
)

var (
	cfgFile   string
	verbose   bool
	serverURL string

	// cfg is loaded once per invocation in PersistentPreRunE.
	cfg = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "fibday",
	Short: "A day counter that stops to ask at every Fibonacci number",
	Long: "fibday counts the days you keep a habit going. Every Fibonacci day (1, 2, 3, 5, 8, 13, ...)\n" +
		"it asks whether to continue or stop. It also keeps a short list of personal notes.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		setupLogging(cfg.Log.Level)
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.fibday/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Use a running fibday server at this URL (or set FIBDAY_URL)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(activateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(decideCmd)
	rootCmd.AddCommand(notesCmd)
}

func setupLogging(level string) {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	if verbose {
		lvl = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
}
