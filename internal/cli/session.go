package cli

import (
	"context"
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cognicore/sbc/internal/logging"
	"github.com/cognicore/sbc/pkg/sbc"
	"github.com/cognicore/sbc/pkg/sbc/config"
	"github.com/cognicore/sbc/pkg/sbc/inference/simple"
	"github.com/cognicore/sbc/pkg/sbc/journal"
	"github.com/cognicore/sbc/pkg/sbc/journal/memstore"
	"github.com/cognicore/sbc/pkg/sbc/journal/sqlite"
)

// app is everything a command needs for one run
type app struct {
	session  *sbc.Session
	logger   *zap.Logger
	settings *config.Settings
}

func openJournal(ctx context.Context, path string) (journal.Store, error) {
	if path == "" {
		return memstore.New(), nil
	}
	store, err := sqlite.OpenSQLite(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return store, nil
}

// buildApp resolves settings, opens the journal and seeds a session with the
// configured rulebooks plus any --fact and --rule flags.
func buildApp(ctx context.Context, v *viper.Viper, flags *rootFlags) (*app, func(), error) {
	settings, err := config.LoadSettings(v, flags.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load settings: %w", err)
	}

	logger, err := logging.New(logging.Config{Level: settings.Log.Level, JSON: settings.Log.JSON})
	if err != nil {
		return nil, nil, err
	}

	loader := config.Loader{
		RulebookPaths: append(append([]string(nil), settings.Rulebooks...), flags.rulebooks...),
		Facts:         flags.facts,
		RuleTexts:     flags.rules,
	}
	rb, err := loader.Load()
	if err != nil {
		_ = logger.Sync()
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	store, err := openJournal(ctx, settings.Journal.Path)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}

	engine := simple.New(
		simple.WithMaxDepth(settings.MaxDepth),
		simple.WithRuleFallback(settings.RuleFallback),
	)

	session := sbc.New(sbc.Options{
		Reasoner: engine,
		Journal:  store,
		Logger:   logger,
	})

	if err := session.LoadRulebook(ctx, rb); err != nil {
		session.Close()
		return nil, nil, fmt.Errorf("load rulebook: %w", err)
	}

	logger.Debug("session ready",
		zap.String("session", session.ID()),
		zap.Int("max_depth", engine.MaxDepth()),
		zap.Bool("fallback", settings.RuleFallback),
		zap.String("journal", settings.Journal.Path))

	cleanup := func() {
		session.Close()
	}

	return &app{session: session, logger: logger, settings: settings}, cleanup, nil
}
