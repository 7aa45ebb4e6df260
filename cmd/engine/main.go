package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"jobscout-engine/internal/config"
	"jobscout-engine/internal/enrich"
	"jobscout-engine/internal/ledger"
	"jobscout-engine/internal/notify"
	"jobscout-engine/internal/run"
	"jobscout-engine/internal/scrape"
	"jobscout-engine/internal/scrape/linkedin"
	"jobscout-engine/internal/scrape/util"
	"jobscout-engine/internal/secrets"
	"jobscout-engine/internal/store"
)

const deepModePages = 5

func main() {
	_ = godotenv.Load()

	var (
		cfgPath  = flag.String("config", "", "path to config file (default: <data_dir>/jobscout.yml, bootstrapped from config/config.yml)")
		mode     = flag.String("mode", "default", "search depth: default or deep")
		rebuild  = flag.Bool("rebuild", false, "create missing store partitions instead of skipping them")
		retry    = flag.Bool("retry", false, "re-fetch rows flagged as incomplete instead of running a search")
		outreach = flag.Bool("outreach", false, "write the outreach CSV column set (includes tailored cv)")
	)
	flag.Parse()

	if err := realMain(*cfgPath, *mode, *rebuild, *retry, *outreach); err != nil {
		log.Fatalf("[engine] %v", err)
	}
}

func realMain(cfgPath, mode string, rebuild, retry, outreach bool) error {
	dataDir := os.Getenv("JOBSCOUT_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	if cfgPath == "" {
		var err error
		cfgPath, err = config.EnsureUserConfig(dataDir, filepath.Join("config", "config.yml"))
		if err != nil {
			return fmt.Errorf("config bootstrap: %w", err)
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config load (%s): %w", cfgPath, err)
	}
	cfg, res := config.NormalizeAndValidate(cfg)
	for _, w := range res.Warnings {
		log.Printf("[config] warning: %s", w)
	}
	if !res.OK() {
		for _, e := range res.Errors {
			log.Printf("[config] error: %s", e)
		}
		return errors.New("invalid configuration")
	}

	switch mode {
	case "default":
	case "deep":
		cfg.Search.Pages = deepModePages
	default:
		return fmt.Errorf("unknown -mode %q (want default or deep)", mode)
	}
	if cfg.App.DataDir == "." {
		cfg.App.DataDir = dataDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storeMode := store.ModeIncremental
	if rebuild {
		storeMode = store.ModeRebuild
	}
	st, err := openStore(ctx, cfg, storeMode, rebuild)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			log.Printf("[engine] store close: %v", cerr)
		}
	}()

	led := ledger.New(filepath.Join(cfg.App.DataDir, "state", "processed_ids.json"))

	debug, err := scrape.NewDebugStore(filepath.Join(cfg.App.DataDir, "debug_html"))
	if err != nil {
		return err
	}
	pacer := util.NewPacer(
		cfg.Pacing.RequestsPerSec,
		cfg.Pacing.Burst,
		msDuration(cfg.Pacing.ItemDelayMinMs),
		msDuration(cfg.Pacing.ItemDelayMaxMs),
	)
	src := linkedin.NewClient()
	walker := scrape.NewWalker(src, pacer, cfg.Search.Pages, cfg.Search.PerPage, msDuration(cfg.Pacing.SearchDelayMs), debug)

	var enr enrich.Client
	if cfg.Enrich.Enabled {
		enr, err = newEnricher(cfg, outreach)
		if err != nil {
			return err
		}
	}

	o := run.NewOrchestrator(cfg, src, walker, st, led, enr, filepath.Join(cfg.App.DataDir, "output"), outreach)

	if retry {
		fixed, err := o.Retry(ctx)
		if err != nil {
			return err
		}
		log.Printf("[engine] retry pass fixed %d rows", fixed)
		return nil
	}

	sum, err := o.Run(ctx)
	if err != nil {
		return err
	}
	if cfg.Notify.TelegramEnabled {
		sendSummary(cfg, sum)
	}
	return nil
}

func openStore(ctx context.Context, cfg config.Config, mode store.Mode, rebuild bool) (store.Store, error) {
	switch cfg.Store.Backend {
	case "workbook":
		return store.NewWorkbook(cfg.Store.WorkbookDir, mode)
	case "sqlite":
		db, err := store.OpenSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return prepareWarehouse(ctx, store.NewWarehouse(db, store.DialectSQLite), rebuild)
	case "postgres":
		db, err := store.OpenPostgres(cfg.Store.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return prepareWarehouse(ctx, store.NewWarehouse(db, store.DialectPostgres), rebuild)
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

func prepareWarehouse(ctx context.Context, w *store.Warehouse, rebuild bool) (store.Store, error) {
	if rebuild {
		if err := w.Rebuild(ctx); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("rebuild warehouse: %w", err)
		}
		return w, nil
	}
	if err := w.Migrate(ctx); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("migrate warehouse: %w", err)
	}
	return w, nil
}

func newEnricher(cfg config.Config, outreach bool) (enrich.Client, error) {
	cv, err := os.ReadFile(cfg.Enrich.CVFile)
	if err != nil {
		return nil, fmt.Errorf("read cv file: %w", err)
	}
	key, err := secrets.GetAPIKey(cfg.Enrich.KeyringAccount)
	if err != nil {
		return nil, err
	}
	prompt := enrich.FitSystemPrompt(string(cv))
	if outreach {
		prompt = enrich.TailoredCVSystemPrompt(string(cv))
	}
	return enrich.NewOpenAIClient(cfg.Enrich.BaseURL, key, cfg.Enrich.Model, prompt), nil
}

func sendSummary(cfg config.Config, sum run.Summary) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Printf("[notify] TELEGRAM_BOT_TOKEN not set, skipping summary message")
		return
	}
	tg, err := notify.NewTelegram(token, cfg.Notify.TelegramChatID)
	if err != nil {
		log.Printf("[notify] %v", err)
		return
	}
	if err := tg.SendSummary(sum); err != nil {
		log.Printf("[notify] send summary: %v", err)
	}
}

func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
