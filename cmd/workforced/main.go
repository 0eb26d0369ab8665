// Workforced runs the agent-workforce orchestration daemon.
//
// It exposes the agent-reaction API over HTTP: persona selection,
// parallel reactions against an external completion service, tone
// formatting, escalation tracking, and the admin alert inbox.
// Configuration is loaded from a single YAML file discovered
// automatically (see [config.DefaultSearchPaths]).
//
// Usage:
//
//	workforced                    Start the daemon
//	workforced -config path.yaml  Start with an explicit config file
//	workforced -version           Print version and build information
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/auton88n/workforce/internal/alert"
	"github.com/auton88n/workforce/internal/api"
	"github.com/auton88n/workforce/internal/buildinfo"
	"github.com/auton88n/workforce/internal/company"
	"github.com/auton88n/workforce/internal/completion"
	"github.com/auton88n/workforce/internal/config"
	"github.com/auton88n/workforce/internal/escalation"
	"github.com/auton88n/workforce/internal/events"
	"github.com/auton88n/workforce/internal/persona"
	"github.com/auton88n/workforce/internal/reaction"
	"github.com/auton88n/workforce/internal/reflection"
	"github.com/auton88n/workforce/internal/relay"
	"github.com/auton88n/workforce/internal/roster"
	"github.com/auton88n/workforce/internal/router"
	"github.com/auton88n/workforce/internal/tone"
	"github.com/auton88n/workforce/internal/workforce"

	_ "github.com/mattn/go-sqlite3" // SQLite driver for database/sql
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	configPath := flag.String("config", "", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(buildinfo.String())
		return nil
	}

	path, err := config.FindConfig(*configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	logger := config.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("workforced starting",
		"version", buildinfo.Version,
		"config", path,
	)

	// One shared database for all stores. WAL keeps concurrent reaction
	// batches and incident writes from blocking each other.
	db, err := sql.Open("sqlite3", cfg.DatabasePath()+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	registry, err := persona.LoadDir(cfg.PersonaDir)
	if err != nil {
		return fmt.Errorf("load personas: %w", err)
	}
	logger.Info("persona registry loaded", "agents", registry.Len(), "lead", registry.LeadID())

	admins := make([]roster.Admin, len(cfg.Admins))
	for i, a := range cfg.Admins {
		admins[i] = roster.Admin{ID: a.ID, Name: a.Name, Email: a.Email}
	}
	ros := roster.New(admins, cfg.DutyUsers)

	bus := events.New()

	// The relay is optional; without a broker every Send is skipped.
	var rel relay.Relay
	if cfg.Relay.Broker != "" {
		mq := relay.NewMQTT(cfg.Relay, logger)
		if err := mq.Start(ctx); err != nil {
			logger.Warn("mqtt relay unavailable, continuing without it", "error", err)
		} else {
			rel = mq
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := mq.Stop(stopCtx); err != nil {
					logger.Error("mqtt relay shutdown failed", "error", err)
				}
			}()
		}
	} else {
		logger.Info("relay disabled (no broker configured)")
	}

	journal, err := reflection.NewJournal(db, logger)
	if err != nil {
		return err
	}
	alertStore, err := alert.NewStore(db)
	if err != nil {
		return err
	}
	incidentStore, err := escalation.NewStore(db)
	if err != nil {
		return err
	}

	companies := company.NewSQLProvider(db)

	client := completion.NewHTTPClient(
		cfg.Completion.BaseURL,
		cfg.Completion.APIKey,
		time.Duration(cfg.Completion.TimeoutSec)*time.Second,
		logger,
	)

	engine := reaction.New(registry, client, journal, companies, bus,
		cfg.Completion.Model, cfg.Completion.MaxReactionTokens, logger)
	presenter := tone.NewPresenter(registry)
	rtr := router.New(registry, bus, logger)
	machine := escalation.NewMachine(incidentStore, ros, rel, bus, logger)
	dispatcher := alert.NewDispatcher(alertStore, registry, ros, rel, cfg.SMTP, bus, logger)

	svc := workforce.New(registry, rtr, engine, presenter, journal, companies, logger)

	server := api.NewServer(cfg.Listen.Address, cfg.Listen.Port, svc, registry,
		rtr, machine, alertStore, dispatcher, ros, bus, logger)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")
		_ = server.Shutdown(context.Background())
	}()

	if err := server.Start(ctx); err != nil {
		if ctx.Err() == nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	logger.Info("workforced stopped")
	return nil
}
