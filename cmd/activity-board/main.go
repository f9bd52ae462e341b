package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dcosta/activity-board/internal/app"
	"github.com/dcosta/activity-board/internal/credential"
	"github.com/dcosta/activity-board/internal/model"
	"github.com/dcosta/activity-board/internal/remote"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "activity-board: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := model.DefaultConfigPath()
	if p := os.Getenv("ACTIVITYBOARD_CONFIG"); p != "" {
		configPath = p
	}

	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	if cfg.Session.SectorID == "" || cfg.Session.UserID == "" {
		if err := seedSession(cfg, store, configPath); err != nil {
			return err
		}
	}

	m := app.New(store, cfg)
	defer m.Controller().Teardown()

	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// openStore builds the configured backing store.
func openStore(cfg *model.AppConfig) (remote.Store, error) {
	switch cfg.Store.Kind {
	case model.StoreKindHTTP:
		apiKey := os.Getenv("ACTIVITYBOARD_API_KEY")
		if apiKey == "" {
			key, err := credential.Get(credential.StoreAPIKey)
			if err != nil {
				return nil, fmt.Errorf(
					"no API key: set ACTIVITYBOARD_API_KEY or store one in the keyring: %w", err)
			}
			apiKey = key
		}
		interval := time.Duration(cfg.Store.PollIntervalSec) * time.Second
		return remote.NewHTTPStore(cfg.Store.BaseURL, apiKey, interval), nil
	default:
		return remote.NewSQLiteStore(cfg.Store.Path)
	}
}

// seedSession provisions a local sector and profile on first run against
// a fresh SQLite store, then persists the identity in the config file.
func seedSession(cfg *model.AppConfig, store remote.Store, configPath string) error {
	s, ok := store.(*remote.SQLiteStore)
	if !ok {
		return fmt.Errorf("config %s is missing session.sector_id and session.user_id", configPath)
	}

	ctx := context.Background()
	sector, err := s.CreateSector(ctx, model.Sector{Name: "My Sector"})
	if err != nil {
		return fmt.Errorf("seeding sector: %w", err)
	}
	profile, err := s.CreateProfile(ctx, model.Profile{
		Name:     os.Getenv("USER"),
		Role:     model.RoleManager,
		SectorID: sector.ID,
	})
	if err != nil {
		return fmt.Errorf("seeding profile: %w", err)
	}

	cfg.Session.SectorID = sector.ID
	cfg.Session.UserID = profile.ID
	return model.SaveConfig(configPath, cfg)
}
