package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/cntry/internal/config"
	"github.com/pders01/cntry/internal/debuglog"
	"github.com/pders01/cntry/internal/restcountries"
	"github.com/pders01/cntry/internal/search"
	"github.com/pders01/cntry/internal/storage"
	"github.com/pders01/cntry/internal/tui"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	configPath string
	dbPath     string
	quiet      bool
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "cntry",
	Short: "Look up countries by name from the terminal",
	Long: `cntry searches the REST Countries service as you type.

One match shows a detail card, up to ten show the list of names, and
anything broader asks for a more specific request.

Controls:
  ctrl+h - History
  ctrl+l - Clear
  Esc    - Clear input / Back / Quit
  ctrl+c - Quit`,
	SilenceUsage: true,
	RunE:         runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to history database (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Skip startup banner")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Write debug logs to the configured log file")
}

func main() {
	defer debuglog.Close()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if !quiet {
		tui.ShowBanner(Version)
	}

	client, err := restcountries.NewClient(cfg)
	if err != nil {
		return err
	}

	store, index, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	defer index.Close()

	app := tui.NewApp(cfg, client, store, index)
	defer app.Shutdown()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running terminal ui: %w", err)
	}
	return nil
}

// loadConfig reads the configuration, applies the persistent flags and
// starts logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if dbPath != "" {
		if dbPath == storage.MemoryPath {
			cfg.Database.Path = storage.MemoryPath
			cfg.Database.SearchIndex = ""
		} else {
			cfg.Database.Path = config.ExpandPath(dbPath)
			cfg.Database.SearchIndex = cfg.Database.Path + ".bleve"
		}
	}

	level := debuglog.ParseLogLevel(cfg.Log.Level)
	if debug {
		level = debuglog.LevelDebug
	}
	if err := debuglog.Setup(level, cfg.Log.File); err != nil {
		return nil, err
	}
	debuglog.Debugf("Loaded config: db=%s index=%s", cfg.Database.Path, cfg.Database.SearchIndex)

	return cfg, nil
}

// openHistory opens the history store and its search index. The index falls
// back to a store scan when bleve is unavailable.
func openHistory(cfg *config.Config) (*storage.Store, search.Index, error) {
	store, err := storage.NewStore(cfg.Database.Path,
		storage.WithTimeout(cfg.Database.Timeout),
		storage.WithMaxHistory(cfg.Database.MaxHistory),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("opening history: %w", err)
	}
	return store, search.Open(store, cfg.Database.SearchIndex), nil
}
