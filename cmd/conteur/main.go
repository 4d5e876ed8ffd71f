package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/aberthier/conteur/internal/config"
	"github.com/aberthier/conteur/internal/engine"
	"github.com/aberthier/conteur/internal/logger"
	"github.com/aberthier/conteur/internal/services"
	"github.com/aberthier/conteur/internal/storage"
	"github.com/aberthier/conteur/pkg/scenario"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.Setup(cfg)

	var llm services.GenerationService
	switch cfg.Provider {
	case config.ProviderOpenAI:
		llm = services.NewOpenAIService(cfg.OpenAIAPIKey, cfg.ModelName, cfg.ImageModelName)
	default:
		llm = services.NewVeniceService(cfg.VeniceAPIKey, cfg.ModelName, cfg.ImageModelName)
	}

	if err := llm.InitModel(context.Background(), cfg.ModelName); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize model: %v\n", err)
		os.Exit(1)
	}

	themes, err := scenario.LoadThemes(cfg.DataDir)
	if err != nil {
		log.Warn("failed to load extra themes", "dir", cfg.DataDir, "error", err)
		themes = scenario.Catalog()
	}

	eng := engine.NewEngine(llm, log).WithThemes(themes)
	illus := engine.NewIllustrationCoordinator(llm, log)

	// Saving is optional: without a reachable Redis the game still runs,
	// only the save and load entries disappear from the menu.
	var saves *engine.SaveManager
	store := storage.NewRedisStorage(cfg.RedisAddr)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := store.Ping(ctx); err != nil {
		log.Warn("redis unreachable, saving disabled", "addr", cfg.RedisAddr, "error", err)
		_ = store.Close()
	} else {
		saves = engine.NewSaveManager(store, log)
		defer func() { _ = store.Close() }()
	}
	cancel()

	ui := NewConsoleUI(eng, illus, saves, themes, cfg.MaxTurns)
	p := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
