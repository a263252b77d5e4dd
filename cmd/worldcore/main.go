package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/l1jgo/worldcore/internal/config"
	"github.com/l1jgo/worldcore/internal/data"
	"github.com/l1jgo/worldcore/internal/persist"
	"github.com/l1jgo/worldcore/internal/scene"
	"github.com/l1jgo/worldcore/internal/scripting"
	"github.com/l1jgo/worldcore/internal/system"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

// ── Main loop ─────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/worldcore.toml"
	if p := os.Getenv("WORLDCORE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg = config.Default()
	} else if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	fmt.Printf("\n  \033[1mworld:\033[0m %s\n\n", cfg.World.Name)

	// 3. Optional save-slot database
	var slots *persist.SlotRepo
	if cfg.Database.Enabled {
		printSection("database")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		if err := persist.RunMigrations(ctx, db.Pool, log); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		slots = persist.NewSlotRepo(db)
		printOK("PostgreSQL connected")
		fmt.Println()
	}

	// 4. Build the scene and restore the last save
	printSection("world")
	sc := scene.New(log)
	restored, err := restore(sc, cfg, slots, log)
	if err != nil {
		return err
	}

	// 5. Spawn prefabs on a fresh world
	if !restored && cfg.World.PrefabPath != "" {
		table, err := data.LoadPrefabTable(cfg.World.PrefabPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.Debug("no prefab table", zap.String("path", cfg.World.PrefabPath))
		case err != nil:
			return fmt.Errorf("load prefab table: %w", err)
		default:
			printStat("prefabs", table.Count())
			n, err := table.SpawnAll(sc.Manager(), sc.Transforms())
			if err != nil {
				return fmt.Errorf("spawn prefabs: %w", err)
			}
			printStat("spawned entities", n)
		}
	}
	printStat("entities", sc.Manager().Count())

	// 6. Lua scripts
	luaEngine, err := scripting.NewEngine(cfg.World.ScriptsDir, sc, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	sc.Register(luaEngine)
	printOK("Lua scripts loaded")

	// 7. Autosave
	if dir := filepath.Dir(cfg.World.SavePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create save dir: %w", err)
		}
	}
	var slotSaver system.SlotSaver
	if slots != nil {
		slotSaver = slots
	}
	autosave := system.NewAutosaveSystem(sc, cfg.World.SavePath, slotSaver, cfg.Database.Slot, log, cfg.World.AutosaveTicks)
	sc.Register(autosave)
	fmt.Println()

	// 8. Tick loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.World.TickRate)
	defer ticker.Stop()
	log.Info("world running", zap.Duration("tick", cfg.World.TickRate))

	for {
		select {
		case <-ticker.C:
			sc.Update(cfg.World.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			if err := autosave.SaveNow(); err != nil {
				log.Error("final save failed", zap.Error(err))
			}
			log.Info("world stopped")
			return nil
		}
	}
}

// restore loads the newest available save: the database slot first, then the
// save file. Reports whether anything was loaded.
func restore(sc *scene.Scene, cfg *config.Config, slots *persist.SlotRepo, log *zap.Logger) (bool, error) {
	if slots != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		row, err := slots.Load(ctx, cfg.Database.Slot)
		switch {
		case errors.Is(err, persist.ErrSlotNotFound):
			log.Debug("no save slot", zap.String("slot", cfg.Database.Slot))
		case err != nil:
			return false, fmt.Errorf("load save slot: %w", err)
		default:
			if err := sc.LoadString(row.Data); err != nil {
				return false, fmt.Errorf("load save slot %s: %w", row.Name, err)
			}
			printOK("restored slot " + row.Name + " (" + row.Revision.String() + ")")
			return true, nil
		}
	}
	if cfg.World.SavePath == "" {
		return false, nil
	}
	err := sc.LoadFromFile(cfg.World.SavePath)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load save file: %w", err)
	}
	printOK("restored " + cfg.World.SavePath)
	return true, nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
