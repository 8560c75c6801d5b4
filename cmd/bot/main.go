// Package main is the entry point for the Maestros community Discord bot.
// The bot owns the gateway connection: interaction handling, membership
// mirroring, and the background reconcile jobs all live in this process.
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
	"github.com/maestros-hub/maestros-community-backend/internal/domain/member"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/notification"
	"github.com/maestros-hub/maestros-community-backend/internal/infrastructure/auditlog"
	discordext "github.com/maestros-hub/maestros-community-backend/internal/infrastructure/external/discord"
	"github.com/maestros-hub/maestros-community-backend/internal/infrastructure/notify"
	"github.com/maestros-hub/maestros-community-backend/internal/infrastructure/persistence/postgres"
	"github.com/maestros-hub/maestros-community-backend/internal/infrastructure/persistence/redis"
	"github.com/maestros-hub/maestros-community-backend/internal/infrastructure/rolesync"
	"github.com/maestros-hub/maestros-community-backend/internal/infrastructure/scheduler"
	"github.com/maestros-hub/maestros-community-backend/internal/infrastructure/scheduler/jobs"
	discordiface "github.com/maestros-hub/maestros-community-backend/internal/interface/discord"
	"github.com/maestros-hub/maestros-community-backend/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "bot: %v\n", err)
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

	log.Info("starting bot",
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

	// ── Discord session ────────────────────────────────────────────────────

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

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

	stats := query.NewGetStatsHandler(applications, members, redis.NewStatsCache(cache), log)
	accept := command.NewAcceptApplicationHandler(applications, roleSyncer, dispatcher, auditor, log)
	reject := command.NewRejectApplicationHandler(applications, roleSyncer, dispatcher, auditor, log)

	// ── Event router ───────────────────────────────────────────────────────

	router := discordiface.NewRouter(discordiface.RouterConfig{
		Logger:  log,
		GuildID: cfg.Discord.GuildID,
	})
	router.OnInteraction(discordiface.InteractionPrefix,
		discordiface.NewReviewHandler(accept, reject, roleSet, log))
	router.OnMembers(discordiface.NewMemberEventsHandler(members, applications, log))
	router.Bind(session)

	if err := session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	defer session.Close()

	router.Start(ctx, session)
	defer router.Stop()

	// ── Background jobs ────────────────────────────────────────────────────

	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{Logger: log})

	syncJob := jobs.NewSyncMembersJob(platform, members, log, jobs.DefaultSyncMembersConfig())
	if err := sched.Register(syncJob, scheduler.NewIntervalSchedule(cfg.Scheduler.MemberSyncInterval)); err != nil {
		return fmt.Errorf("register %s: %w", syncJob.Name(), err)
	}

	sweepJob := jobs.NewSweepOrphanedRolesJob(
		platform, applications, roleSyncer, auditor, roleSet, log,
		jobs.DefaultSweepOrphanedRolesConfig())
	if err := sched.Register(sweepJob, scheduler.NewIntervalSchedule(cfg.Scheduler.OrphanSweepInterval)); err != nil {
		return fmt.Errorf("register %s: %w", sweepJob.Name(), err)
	}

	statsJob := jobs.NewRefreshStatsJob(stats, log)
	if err := sched.Register(statsJob, scheduler.NewIntervalSchedule(cfg.Scheduler.StatsRefreshInterval)); err != nil {
		return fmt.Errorf("register %s: %w", statsJob.Name(), err)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop() //nolint:errcheck

	log.Info("bot running", zap.String("guild_id", cfg.Discord.GuildID))
	<-ctx.Done()

	log.Info("shutting down")
	return nil
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
