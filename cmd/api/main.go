// Package main is the entry point for the Maestros community REST API.
// The process is stateless: it shares the postgres store and redis cache
// with the bot process and talks to Discord over REST only, never the
// gateway.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/maestros-hub/maestros-community-backend/config"
	"github.com/maestros-hub/maestros-community-backend/internal/application/command"
	"github.com/maestros-hub/maestros-community-backend/internal/application/query"
	"github.com/maestros-hub/maestros-community-backend/internal/auth"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/member"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/notification"
	"github.com/maestros-hub/maestros-community-backend/internal/infrastructure/auditlog"
	discordext "github.com/maestros-hub/maestros-community-backend/internal/infrastructure/external/discord"
	"github.com/maestros-hub/maestros-community-backend/internal/infrastructure/notify"
	"github.com/maestros-hub/maestros-community-backend/internal/infrastructure/persistence/postgres"
	"github.com/maestros-hub/maestros-community-backend/internal/infrastructure/persistence/redis"
	"github.com/maestros-hub/maestros-community-backend/internal/infrastructure/rolesync"
	httpserver "github.com/maestros-hub/maestros-community-backend/internal/interface/http"
	"github.com/maestros-hub/maestros-community-backend/internal/interface/http/handlers"
	"github.com/maestros-hub/maestros-community-backend/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.MustNew(logger.Config{
		Level:       cfg.Observability.LogLevel,
		JSON:        cfg.Observability.LogJSON,
		Development: cfg.IsDevelopment(),
	})
	defer log.Sync() //nolint:errcheck

	log.Info("starting api",
		zap.String("version", cfg.App.Version),
		zap.String("environment", string(cfg.App.Environment)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Storage ────────────────────────────────────────────────────────────

	pg, err := connectPostgres(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	if cfg.Database.RunMigrations {
		if err := postgres.NewMigrator(pg).Migrate(ctx); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	cache, err := redis.NewCache(redis.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer cache.Close()

	// ── Discord (REST only) ────────────────────────────────────────────────

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}

	clientCfg := discordext.DefaultClientConfig(cfg.Discord.Token, cfg.Discord.GuildID)
	clientCfg.RequestTimeout = cfg.Discord.RequestTimeout
	platform := discordext.NewClient(session, clientCfg, log)

	roleSet := roleSetFromConfig(cfg)
	channels := channelMapFromConfig(cfg)

	notifier := discordext.NewNotifier(session, channels, log)
	dispatcher := notify.NewDispatcher(notifier, log)

	// ── Repositories and lifecycle wiring ──────────────────────────────────

	applications := postgres.NewApplicationRepository(pg)
	members := postgres.NewMemberRepository(pg)
	auditEntries := postgres.NewAuditRepository(pg)

	roleSyncer := rolesync.NewSynchronizer(platform, roleSet, log)
	auditor := auditlog.NewAuditor(auditEntries, dispatcher, log)

	eligibility := query.NewCheckEligibilityHandler(
		platform, platform, applications, roleSet, cfg.Discord.InviteURL, log)
	reads := query.NewApplicationReads(applications)
	stats := query.NewGetStatsHandler(applications, members, redis.NewStatsCache(cache), log)

	submit := command.NewSubmitApplicationHandler(
		eligibility, applications, platform, roleSyncer, dispatcher, auditor, log)
	accept := command.NewAcceptApplicationHandler(applications, roleSyncer, dispatcher, auditor, log)
	reject := command.NewRejectApplicationHandler(applications, roleSyncer, dispatcher, auditor, log)
	override := command.NewGrantOverrideHandler(applications, dispatcher, auditor, log)

	// ── HTTP server ────────────────────────────────────────────────────────

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authMiddleware := auth.NewMiddleware(tokens, members, roleSet, log)

	server := httpserver.NewServer(httpserver.Config{
		Host:               cfg.HTTP.Host,
		Port:               cfg.HTTP.Port,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		RequestTimeout:     cfg.HTTP.RequestTimeout,
		RateLimitPerMinute: cfg.HTTP.RateLimitPerMinute,
	}, log)

	server.RegisterRoutes(httpserver.RouteConfig{
		Applications: handlers.NewApplicationsHandler(eligibility, submit, reads),
		Review:       handlers.NewReviewHandler(reads, accept, reject, override),
		Stats:        handlers.NewStatsHandler(stats),
		Health: handlers.NewHealthHandler(map[string]handlers.CheckFunc{
			"postgres": pg.Ping,
			"redis":    cache.Ping,
			"discord": func(ctx context.Context) error {
				_, err := session.User("@me", discordgo.WithContext(ctx))
				return err
			},
		}),
		AuthMiddleware: authMiddleware,
		RateLimitCache: cache,
		Logger:         log,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func connectPostgres(ctx context.Context, cfg *config.Config) (*postgres.Connection, error) {
	if cfg.Database.URL != "" {
		return postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	}
	return postgres.NewConnection(ctx, postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		Database:        cfg.Database.Name,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
	})
}

func roleSetFromConfig(cfg *config.Config) member.RoleSet {
	return member.RoleSet{
		member.RoleKindMember:  member.Role(cfg.Discord.MemberRoleID),
		member.RoleKindPending: member.Role(cfg.Discord.PendingRoleID),
		member.RoleKindManager: member.Role(cfg.Discord.ManagerRoleID),
		member.RoleKindAdmin:   member.Role(cfg.Discord.AdminRoleID),
	}
}

func channelMapFromConfig(cfg *config.Config) discordext.ChannelMap {
	return discordext.ChannelMap{
		notification.BroadcastReviewQueue: cfg.Discord.ReviewQueueChannelID,
		notification.BroadcastAcceptedLog: cfg.Discord.AcceptedLogChannelID,
		notification.BroadcastRejectedLog: cfg.Discord.RejectedLogChannelID,
		notification.BroadcastAuditLog:    cfg.Discord.AuditLogChannelID,
	}
}
