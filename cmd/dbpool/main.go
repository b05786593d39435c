// Command dbpool runs scripts through per-worker connection pools and
// serves the pool counters over HTTP.
//
// Run with:
//
//	dbpool --config dbpool.yaml --exec "EXEC P_GAME_DAILY_ACHIEVEMENT_R" --repeat 100
//	dbpool --config dbpool.yaml --serve
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/koustreak/dbpool/internal/config"
	"github.com/koustreak/dbpool/internal/database"
	_ "github.com/koustreak/dbpool/internal/database/mysql"
	_ "github.com/koustreak/dbpool/internal/database/postgres"
	"github.com/koustreak/dbpool/internal/database/sqlbridge"
	_ "github.com/koustreak/dbpool/internal/database/sqlite"
	_ "github.com/koustreak/dbpool/internal/database/sqlserver"
	"github.com/koustreak/dbpool/internal/logger"
	"github.com/koustreak/dbpool/internal/monitor"
	"github.com/koustreak/dbpool/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "dbpool:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		scripts    []string
		repeat     int
		serve      bool
	)
	flagSet := pflag.NewFlagSet("dbpool", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to the YAML configuration file")
	flagSet.StringArrayVarP(&scripts, "exec", "e", nil, "script to run, may be repeated")
	flagSet.IntVarP(&repeat, "repeat", "n", 1, "number of times every script is queued")
	flagSet.BoolVar(&serve, "serve", false, "keep running after the scripts until interrupted")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if len(scripts) == 0 && !serve {
		return fmt.Errorf("nothing to do: pass --exec or --serve")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.New(&cfg.Logging)
	logger.SetGlobal(log)

	drv, err := sqlbridge.Open(cfg.Database.Backend)
	if err != nil {
		return err
	}

	registry := database.NewRegistry[uuid.UUID](drv, cfg.Database, database.WithLogger(log), cfg.IdleContainer())
	defer registry.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Monitor.Enabled {
		mon := monitor.New(cfg.Monitor, monitor.FromRegistry(registry), log)
		go func() {
			if err := mon.ListenAndServe(); err != nil {
				log.ErrorWith("monitor server failed", err, nil)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mon.Shutdown(shutdownCtx)
		}()
	}

	queue := worker.NewQueue()
	t := &tally{}
	for i := 0; i < repeat; i++ {
		for _, s := range scripts {
			q, err := database.NewQuery(s, newRowCounter(s, t))
			if err != nil {
				return err
			}
			queue.Put(q)
		}
	}

	group := worker.Start(ctx, cfg.Worker.Count, queue, registry,
		worker.WithLogger(log),
		worker.WithIdleBackoff(cfg.Worker.IdleBackoff),
		worker.WithResultHook(t.record),
	)
	log.With().
		Str("backend", string(cfg.Database.Backend)).
		Int("workers", cfg.Worker.Count).
		Int("queued", queue.Len()).
		Logger().Info("dbpool started")

	if serve {
		<-ctx.Done()
	}
	group.Stop()
	if err := group.Wait(); err != nil {
		return err
	}

	log.InfoWith("dbpool stopped", t.fields())
	return nil
}

// tally counts query outcomes across workers.
type tally struct {
	mu     sync.Mutex
	ok     int
	failed int
	rows   int
}

func (t *tally) record(q database.Query, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.failed++
		logger.Global().ErrorWith("query failed", err, map[string]any{"script": q.Script()})
		return
	}
	t.ok++
}

func (t *tally) addRows(n int) {
	t.mu.Lock()
	t.rows += n
	t.mu.Unlock()
}

func (t *tally) fields() map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return map[string]any{"succeeded": t.ok, "failed": t.failed, "rows": t.rows}
}

// newRowCounter returns a consumer that counts the rows of every recordset
// without reading any column.
func newRowCounter(script string, t *tally) database.Consumer {
	return &database.ConsumerFuncs{
		OnError: func(e *database.Error) {
			logger.Global().With().
				Str("script", script).
				Str("state", e.State).
				Str("severity", e.Severity.String()).
				Logger().Warn(e.Message)
		},
		OnRecordset: func(c *database.Cursor) error {
			n := 0
			err := c.EachRow(func(*database.Cursor) error {
				n++
				return nil
			})
			t.addRows(n)
			return err
		},
	}
}
