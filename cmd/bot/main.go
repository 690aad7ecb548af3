// Command bot runs the chat bot engine. It speaks the bridge protocol on
// stdin/stdout with the session process that owns the actual chat
// connection, so all logging goes to stderr.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/naufalh/wabot/internal/bridge"
	"github.com/naufalh/wabot/internal/commands"
	"github.com/naufalh/wabot/internal/config"
	"github.com/naufalh/wabot/internal/engine"
	"github.com/naufalh/wabot/internal/funapi"
	"github.com/naufalh/wabot/internal/httpapi"
	"github.com/naufalh/wabot/internal/repo"
	"github.com/naufalh/wabot/internal/sysutil"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if cfg.LogPretty {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	var db *gorm.DB
	if cfg.DBPath != "" {
		opened, err := repo.OpenSQLite(cfg.DBPath)
		if err == nil {
			err = repo.AutoMigrate(opened)
		}
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.DBPath).
				Msg("database unavailable, running memory-only")
		} else {
			db = opened
		}
	} else {
		log.Info().Msg("no database path configured, running memory-only")
	}

	conn := bridge.NewConn(os.Stdin, os.Stdout, log)
	gw := bridge.NewGateway(conn)

	access := engine.NewAccess(cfg.OwnerNumbers)
	mode := engine.NewMode(cfg.PublicMode)
	toggles := engine.NewToggles(engine.ToggleDefaults{
		AntiCall:         cfg.Toggles.AntiCall,
		CallBlock:        cfg.Toggles.CallBlock,
		AutoReactGroup:   cfg.Toggles.AutoReactGroup,
		SaveStatus:       cfg.Toggles.SaveStatus,
		AntiDelete:       cfg.Toggles.AntiDelete,
		AntiStatusDelete: cfg.Toggles.AntiStatusDelete,
	})
	quota := engine.NewQuotaStore(db, cfg.DefaultLimit, log)
	protection := engine.NewProtectionStore(db, log)
	abuse := engine.NewAbuseDetector(cfg.SpamWindow, cfg.SpamThreshold)
	meta := engine.NewMetadataCache(cfg.MetadataTTL, gw.FetchGroupMetadata)
	recall := engine.NewRecallCache(cfg.RecallCapacity)

	router := engine.NewRouter(cfg.CommandPrefix, access, mode, protection, quota, gw, log)
	screener := engine.NewScreener(access, protection, abuse, gw, nil, log)
	pipeline := engine.NewPipeline(router, screener, recall, meta, toggles, access, gw, log)

	api := funapi.New(cfg.API.BaseURL, funapi.Options{
		Key:     cfg.API.Key,
		Timeout: cfg.API.Timeout,
		RPS:     cfg.API.RPS,
		Burst:   cfg.API.Burst,
	}, log)

	commands.RegisterAll(router, commands.Deps{
		Access:     access,
		Mode:       mode,
		Toggles:    toggles,
		Quota:      quota,
		Protection: protection,
		Meta:       meta,
		API:        api,
		Identity:   cfg.Identity,
		Prefix:     cfg.CommandPrefix,
		Log:        log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AdminPort != "" {
		addr := cfg.AdminPort
		if !strings.Contains(addr, ":") {
			addr = ":" + addr
		}
		srv := httpapi.NewServer(httpapi.Options{
			Addr:         addr,
			GinMode:      cfg.GinMode,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		}, func() httpapi.Status {
			return httpapi.Status{
				BotName:       cfg.Identity.BotName,
				Public:        mode.Public(),
				UptimeSeconds: int64(sysutil.Uptime().Seconds()),
				CachedUsers:   quota.Len(),
				CachedGroups:  protection.Len(),
				CachedRosters: meta.Len(),
				RecallEntries: recall.Len(),
				Persistent:    db != nil,
			}
		}, log)
		go func() {
			log.Info().Str("addr", addr).Msg("admin server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("admin server failed")
			}
		}()
		go func() {
			<-ctx.Done()
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutCtx)
		}()
	}

	log.Info().
		Str("bot", cfg.Identity.BotName).
		Bool("public", cfg.PublicMode).
		Bool("persistent", db != nil).
		Msg("engine started")

	if err := conn.Run(ctx, pipeline.HandleRaw); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("bridge stream failed")
	}
	log.Info().Msg("bridge stream ended, shutting down")
}
