package app

import (
	"context"
	authAPI "crash_backend/internal/api/auth"
	gameAPI "crash_backend/internal/api/game"
	"crash_backend/internal/config"
	"crash_backend/internal/config/env"
	"crash_backend/internal/events"
	"crash_backend/internal/gateway"
	"crash_backend/internal/middleware"
	"crash_backend/internal/repository"
	"crash_backend/internal/repository/account_repo"
	"crash_backend/internal/repository/auth_repo"
	"crash_backend/internal/repository/bankroll_repo"
	"crash_backend/internal/repository/journal_repo"
	"crash_backend/internal/repository/memory_repo"
	"crash_backend/internal/repository/round_repo"
	"crash_backend/internal/repository/stats_repo"
	"crash_backend/internal/repository/user_repo"
	"crash_backend/internal/service"
	authServ "crash_backend/internal/service/auth"
	"crash_backend/internal/service/bankroll"
	"crash_backend/internal/service/engine"
	"crash_backend/internal/service/guard"
	"crash_backend/internal/service/ledger"
	"crash_backend/internal/service/wager"
	"crash_backend/pkg/logger"
	"crash_backend/pkg/resp"
	"crash_backend/pkg/retry"
	"net/http"
	"time"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	statsWindow   = 1000
	dbPingTimeout = 30 * time.Second
)

// ServiceProvider - ленивая сборка зависимостей. Ошибка конфигурации
// или недоступное хранилище при старте - паника, как и раньше
type ServiceProvider struct {
	configPath string

	// Configs
	storageCfg config.StorageConfig
	pgConfig   config.PGConfig
	httpCfg    config.HTTPConfig
	jwtCfg     config.JWTConfig
	natsCfg    config.NATSConfig
	journalCfg config.JournalConfig
	gameCfg    config.GameConfig

	// Database
	dbClient  *pgxpool.Pool
	txManager service.TxManager

	// Repositories
	accountRepo  repository.AccountRepository
	bankrollRepo repository.BankrollRepository
	roundRepo    repository.RoundRepository
	journalRepo  repository.JournalRepository
	statsRepo    repository.StatsRepository
	userRepo     repository.UserRepository
	authRepo     repository.AuthRepository

	// Events
	emitter  *events.Emitter
	notifier service.Notifier
	hub      *gateway.Hub

	// Services
	ledgerServ   service.LedgerService
	bankrollServ service.BankrollService
	guard        *guard.Guard
	registry     *wager.Registry
	engine       *engine.Engine
	authServ     service.AuthService

	// Handlers and router
	authHand *authAPI.Handler
	gameHand *gameAPI.Handler
	router   chi.Router
}

func newServiceProvider(configPath string) *ServiceProvider {
	return &ServiceProvider{configPath: configPath}
}

func (sp *ServiceProvider) StorageCfg() config.StorageConfig {
	if sp.storageCfg == nil {
		cfg, err := env.NewStorageConfig()
		if err != nil {
			panic("failed to get storage config: " + err.Error())
		}
		sp.storageCfg = cfg
	}
	return sp.storageCfg
}

func (sp *ServiceProvider) inMemory() bool {
	return sp.StorageCfg().Backend() == env.StorageMemory
}

func (sp *ServiceProvider) PgConfig() config.PGConfig {
	if sp.pgConfig == nil {
		cfg, err := env.NewPGConfig()
		if err != nil {
			panic("failed to get database config: " + err.Error())
		}
		sp.pgConfig = cfg
	}
	return sp.pgConfig
}

func (sp *ServiceProvider) HTTPCfg() config.HTTPConfig {
	if sp.httpCfg == nil {
		cfg, err := env.NewHTTPConfig()
		if err != nil {
			panic("failed to get http config: " + err.Error())
		}
		sp.httpCfg = cfg
	}
	return sp.httpCfg
}

func (sp *ServiceProvider) JWTCfg() config.JWTConfig {
	if sp.jwtCfg == nil {
		cfg, err := env.NewJWTConfig()
		if err != nil {
			panic("failed to get jwt config: " + err.Error())
		}
		sp.jwtCfg = cfg
	}
	return sp.jwtCfg
}

func (sp *ServiceProvider) NATSCfg() config.NATSConfig {
	if sp.natsCfg == nil {
		cfg, err := env.NewNATSConfig()
		if err != nil {
			panic("failed to get nats config: " + err.Error())
		}
		sp.natsCfg = cfg
	}
	return sp.natsCfg
}

func (sp *ServiceProvider) JournalCfg() config.JournalConfig {
	if sp.journalCfg == nil {
		cfg, err := env.NewJournalConfig()
		if err != nil {
			panic("failed to get journal config: " + err.Error())
		}
		sp.journalCfg = cfg
	}
	return sp.journalCfg
}

func (sp *ServiceProvider) GameCfg() config.GameConfig {
	if sp.gameCfg == nil {
		cfg, err := env.NewGameConfigFromYAML(sp.configPath)
		if err != nil {
			panic("failed to get game config: " + err.Error())
		}
		sp.gameCfg = cfg
	}
	return sp.gameCfg
}

// DBClient - пул соединений, пинг с экспоненциальной паузой,
// пока база поднимается вместе с сервисом
func (sp *ServiceProvider) DBClient(ctx context.Context) *pgxpool.Pool {
	if sp.dbClient == nil {
		dbc, err := pgxpool.New(ctx, sp.PgConfig().DSN())
		if err != nil {
			panic("failed to create db pool: " + err.Error())
		}
		err = retry.Exponential(ctx, func() error { return dbc.Ping(ctx) }, retry.ExponentialConfig{
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			MaxElapsedTime:  dbPingTimeout,
			OnRetry: func(err error, next time.Duration) {
				logger.Warn("Database is not ready", "err", err, "retry_in", next)
			},
		})
		if err != nil {
			panic("failed to ping db: " + err.Error())
		}
		sp.dbClient = dbc
	}
	return sp.dbClient
}

func (sp *ServiceProvider) TXManager(ctx context.Context) service.TxManager {
	if sp.txManager == nil {
		if sp.inMemory() {
			sp.txManager = memory_repo.TxManager{}
			return sp.txManager
		}
		m, err := manager.New(trmpgx.NewDefaultFactory(sp.DBClient(ctx)))
		if err != nil {
			panic("failed to create tx manager: " + err.Error())
		}
		sp.txManager = m
	}
	return sp.txManager
}

func (sp *ServiceProvider) AccountRepo(ctx context.Context) repository.AccountRepository {
	if sp.accountRepo == nil {
		if sp.inMemory() {
			sp.accountRepo = memory_repo.NewAccountRepository()
		} else {
			sp.accountRepo = account_repo.NewAccountRepository(sp.DBClient(ctx), trmpgx.DefaultCtxGetter)
		}
	}
	return sp.accountRepo
}

func (sp *ServiceProvider) BankrollRepo(ctx context.Context) repository.BankrollRepository {
	if sp.bankrollRepo == nil {
		if sp.inMemory() {
			sp.bankrollRepo = memory_repo.NewBankrollRepository()
		} else {
			sp.bankrollRepo = bankroll_repo.NewBankrollRepository(sp.DBClient(ctx), trmpgx.DefaultCtxGetter)
		}
	}
	return sp.bankrollRepo
}

func (sp *ServiceProvider) RoundRepo(ctx context.Context) repository.RoundRepository {
	if sp.roundRepo == nil {
		if sp.inMemory() {
			sp.roundRepo = memory_repo.NewRoundRepository()
		} else {
			sp.roundRepo = round_repo.NewRoundRepository(sp.DBClient(ctx))
		}
	}
	return sp.roundRepo
}

func (sp *ServiceProvider) UserRepo(ctx context.Context) repository.UserRepository {
	if sp.userRepo == nil {
		if sp.inMemory() {
			sp.userRepo = memory_repo.NewUserRepository()
		} else {
			sp.userRepo = user_repo.NewUserRepository(sp.DBClient(ctx))
		}
	}
	return sp.userRepo
}

func (sp *ServiceProvider) AuthRepo(ctx context.Context) repository.AuthRepository {
	if sp.authRepo == nil {
		if sp.inMemory() {
			users, ok := sp.UserRepo(ctx).(*memory_repo.UserRepo)
			if !ok {
				panic("memory auth repository needs memory user repository")
			}
			sp.authRepo = memory_repo.NewAuthRepository(users)
		} else {
			sp.authRepo = auth_repo.NewAuthRepository(sp.DBClient(ctx))
		}
	}
	return sp.authRepo
}

// JournalRepo - журнал открытых ставок. В режиме memory живёт в памяти:
// восстанавливать после рестарта всё равно нечего
func (sp *ServiceProvider) JournalRepo() repository.JournalRepository {
	if sp.journalRepo == nil {
		dir := sp.JournalCfg().Dir()
		if sp.inMemory() {
			dir = ""
		}
		j, err := journal_repo.NewJournalRepository(dir)
		if err != nil {
			panic("failed to open wager journal: " + err.Error())
		}
		sp.journalRepo = j
	}
	return sp.journalRepo
}

func (sp *ServiceProvider) StatsRepo() repository.StatsRepository {
	if sp.statsRepo == nil {
		sp.statsRepo = stats_repo.NewStatsRepository(sp.GameCfg().HouseEdge()*100, statsWindow)
	}
	return sp.statsRepo
}

func (sp *ServiceProvider) Emitter() *events.Emitter {
	if sp.emitter == nil && sp.NATSCfg().Enabled() {
		e, err := events.NewEmitter(sp.NATSCfg().URL(), sp.NATSCfg().SubjectPrefix())
		if err != nil {
			panic("failed to connect to nats: " + err.Error())
		}
		sp.emitter = e
	}
	return sp.emitter
}

// Notifier - websocket хаб и, если настроен, NATS
func (sp *ServiceProvider) Notifier(ctx context.Context) service.Notifier {
	if sp.notifier == nil {
		multi := events.Multi{sp.Hub(ctx)}
		if e := sp.Emitter(); e != nil {
			multi = append(multi, e)
		}
		sp.notifier = multi
	}
	return sp.notifier
}

func (sp *ServiceProvider) Hub(ctx context.Context) *gateway.Hub {
	if sp.hub == nil {
		sp.hub = gateway.NewHub(sp.LedgerService(ctx), gateway.JWTAuthenticator{Secret: sp.JWTCfg().AccessTokenSecretKey()})
	}
	return sp.hub
}

func (sp *ServiceProvider) LedgerService(ctx context.Context) service.LedgerService {
	if sp.ledgerServ == nil {
		sp.ledgerServ = ledger.NewLedgerService(sp.AccountRepo(ctx), sp.TXManager(ctx), sp.GameCfg().DemoGrant())
	}
	return sp.ledgerServ
}

func (sp *ServiceProvider) BankrollService(ctx context.Context) service.BankrollService {
	if sp.bankrollServ == nil {
		s, err := bankroll.NewBankrollService(ctx, sp.BankrollRepo(ctx),
			sp.GameCfg().InitialBankroll(), sp.GameCfg().SafetyMargin(), sp.Notifier(ctx))
		if err != nil {
			panic("failed to load bankroll: " + err.Error())
		}
		sp.bankrollServ = s
	}
	return sp.bankrollServ
}

// Guard - после сбоя хранилища ставки стоят, пока оно не ответит на пинг.
// Перед возобновлением пул перечитывается из базы
func (sp *ServiceProvider) Guard(ctx context.Context) *guard.Guard {
	if sp.guard == nil {
		var pinger repository.Pinger = guard.PingFunc(func(context.Context) error { return nil })
		if !sp.inMemory() {
			pinger = sp.DBClient(ctx)
		}
		sp.guard = guard.NewGuard(ctx, pinger, sp.Notifier(ctx),
			guard.WithOnResume(sp.BankrollService(ctx).Sync))
	}
	return sp.guard
}

func (sp *ServiceProvider) Registry(ctx context.Context) *wager.Registry {
	if sp.registry == nil {
		game := sp.GameCfg()
		sp.registry = wager.NewWagerRegistry(
			sp.LedgerService(ctx),
			sp.BankrollService(ctx),
			sp.JournalRepo(),
			sp.StatsRepo(),
			nil,
			sp.RoundRepo(ctx),
			sp.TXManager(ctx),
			sp.Guard(ctx),
			sp.Notifier(ctx),
			wager.Limits{MinBet: game.MinBet(), MaxBet: game.MaxBet(), PayoutFee: game.PayoutFee()},
		)
	}
	return sp.registry
}

// Engine - движок раундов, связанный с реестром ставок и хабом
func (sp *ServiceProvider) Engine(ctx context.Context) *engine.Engine {
	if sp.engine == nil {
		game := sp.GameCfg()
		curve, err := engine.NewCurve(game.Curve())
		if err != nil {
			panic("failed to build curve: " + err.Error())
		}

		e, err := engine.NewEngine(ctx, engine.ConfigFromGame(game), curve,
			engine.FairSource{Salt: game.FairnessSalt()}, engine.SystemClock,
			sp.RoundRepo(ctx), sp.Notifier(ctx))
		if err != nil {
			panic("failed to create round engine: " + err.Error())
		}

		e.SetGuard(sp.Guard(ctx))
		registry := sp.Registry(ctx)
		registry.SetRoundSource(e)
		e.AddHooks(registry)
		sp.Hub(ctx).Attach(registry, e)
		sp.engine = e
	}
	return sp.engine
}

func (sp *ServiceProvider) AuthService(ctx context.Context) service.AuthService {
	if sp.authServ == nil {
		sp.authServ = authServ.NewService(sp.TXManager(ctx), sp.UserRepo(ctx), sp.AuthRepo(ctx), sp.JWTCfg())
	}
	return sp.authServ
}

func (sp *ServiceProvider) AuthHandler(ctx context.Context) *authAPI.Handler {
	if sp.authHand == nil {
		sp.authHand = authAPI.NewHandler(authAPI.HandlerDeps{
			Serv:       sp.AuthService(ctx),
			RefreshTTL: sp.JWTCfg().RefreshTokenDuration(),
		})
	}
	return sp.authHand
}

func (sp *ServiceProvider) GameHandler(ctx context.Context) *gameAPI.Handler {
	if sp.gameHand == nil {
		sp.gameHand = gameAPI.NewHandler(gameAPI.HandlerDeps{
			Hub:      sp.Hub(ctx),
			Engine:   sp.Engine(ctx),
			Ledger:   sp.LedgerService(ctx),
			Bankroll: sp.BankrollService(ctx),
			Stats:    sp.StatsRepo(),
		})
	}
	return sp.gameHand
}

func (sp *ServiceProvider) Router(ctx context.Context) chi.Router {
	if sp.router == nil {
		r := chi.NewRouter()
		r.Use(chimw.Recoverer)

		// CORS middleware
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: false,
			MaxAge:           60 * 15,
		}))

		r.Handle("/metrics", promhttp.Handler())
		r.Get("/health", sp.health(ctx))

		authHandler := sp.AuthHandler(ctx)
		r.Route("/auth", func(rr chi.Router) {
			rr.Post("/register", authHandler.Register)
			rr.Post("/login", authHandler.Login)
			rr.Post("/refresh", authHandler.Refresh)
			rr.Post("/logout", authHandler.Logout)
		})

		gameHandler := sp.GameHandler(ctx)
		r.Get("/ws", gameHandler.Connect)
		r.Route("/api", func(rr chi.Router) {
			rr.Get("/history", gameHandler.History)
			rr.Get("/current", gameHandler.Current)
			rr.Get("/rounds/{id}", gameHandler.Round)
			rr.Get("/stats", gameHandler.Stats)
			rr.With(middleware.Auth(sp.JWTCfg().AccessTokenSecretKey())).Get("/balance", gameHandler.Balance)
		})

		sp.router = r
	}
	return sp.router
}

func (sp *ServiceProvider) health(ctx context.Context) http.HandlerFunc {
	g := sp.Guard(ctx)
	return func(w http.ResponseWriter, _ *http.Request) {
		halted, reason := g.Status()
		if halted {
			resp.WriteJSONResponse(w, http.StatusServiceUnavailable, map[string]any{"status": "halted", "reason": reason})
			return
		}
		resp.WriteJSONResponse(w, http.StatusOK, map[string]any{"status": "ok"})
	}
}

// Close - освобождает внешние ресурсы после остановки движка
func (sp *ServiceProvider) Close() {
	if sp.guard != nil {
		sp.guard.Wait()
	}
	if sp.emitter != nil {
		sp.emitter.Close()
	}
	if sp.journalRepo != nil {
		if err := sp.journalRepo.Close(); err != nil {
			logger.Error("Failed to close wager journal", "err", err)
		}
	}
	if sp.dbClient != nil {
		sp.dbClient.Close()
	}
}
