package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mysociety/appgtrack/internal/config"
	"github.com/mysociety/appgtrack/internal/register"
	"github.com/mysociety/appgtrack/internal/resolve"
	"github.com/mysociety/appgtrack/internal/roster"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "appgtrack",
	Short: "APPG register tracking pipeline",
	Long:  "Resolves scraped APPG member names against the parliamentary roster, applies the eligibility deny-list, and diffs dated register snapshots.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := cfg.Validate(); err != nil {
			return err
		}

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// initStore opens the configured snapshot/decision store and migrates it.
func initStore(cmd *cobra.Command) (register.Store, error) {
	var st register.Store
	switch cfg.Store.Driver {
	case "sqlite":
		s, err := register.NewSQLite(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		st = s
	case "memory":
		st = register.NewMem()
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err := st.Migrate(cmd.Context()); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// loadMatcher loads the roster people file and builds a matcher from the
// configured thresholds.
func loadMatcher() (*resolve.Matcher, error) {
	r, err := roster.Load(cfg.Roster.PeopleFile, resolve.Normalize)
	if err != nil {
		return nil, err
	}
	return resolve.NewMatcher(r, resolve.MatcherConfig{
		Floor:         cfg.Match.Floor,
		AutoAccept:    cfg.Match.AutoAccept,
		MaxCandidates: cfg.Match.MaxCandidates,
	}), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
