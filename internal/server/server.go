package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/auth"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/config"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/database"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/events"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/handler"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/membership"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/middleware"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/model"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/notify"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/ordering"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/realtime"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/repository"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/scanner"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Config *config.Config

	logger     *log.Logger
	hub        *realtime.Hub
	relay      *realtime.RedisRelay
	redis      *redis.Client
	dispatcher *events.Dispatcher
	mail       *notify.MailQueue
	scanner    *scanner.DeadlineScanner
	cancel     context.CancelFunc
}

func Init(cfg *config.Config, logger *log.Logger) (*Server, error) {
	if cfg.AutoMigrate {
		if err := database.Migrate(cfg.MigrateURL(), logger); err != nil {
			return nil, fmt.Errorf("❌ failed to migrate DB: %w", err)
		}
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("❌ %w", err)
	}
	logger.Info("✅ Connected to database")

	s := &Server{DB: db, Config: cfg, logger: logger}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	boardRepo := repository.NewBoardRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Realtime
	s.hub = realtime.NewHub(cfg.SessionBuffer, logger.WithField("component", "hub"))
	if cfg.RedisAddr != "" {
		s.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		s.relay = realtime.NewRedisRelay(s.redis, cfg.RedisChannel, s.hub, logger.WithField("component", "relay"))
		s.hub.SetRelay(s.relay)
		logger.WithField("addr", cfg.RedisAddr).Info("✅ Realtime relay enabled")
	}

	// Side effects
	var mailer notify.Mailer = notify.NewLogMailer(logger.WithField("component", "mail"))
	if cfg.SMTPHost != "" {
		smtpMailer, err := notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
		if err != nil {
			return nil, fmt.Errorf("❌ %w", err)
		}
		mailer = smtpMailer
	}
	s.mail = notify.NewMailQueue(mailer, cfg.MailWorkers, cfg.MailBuffer, logger.WithField("component", "mail"))
	fanout := notify.NewFanout(notificationRepo, boardRepo, userRepo, s.hub, s.mail, logger.WithField("component", "fanout"))
	s.dispatcher = events.NewDispatcher(cfg.DispatchShards, cfg.DispatchBuffer, logger.WithField("component", "dispatcher"),
		realtime.NewEventBroadcaster(s.hub, logger.WithField("component", "broadcast")),
		fanout,
	)
	s.scanner = scanner.New(taskRepo, boardRepo, fanout, s.hub, scanner.Options{
		Interval: cfg.ReminderInterval,
		Window:   cfg.ReminderWindow,
		Audience: scanner.Audience(cfg.ReminderAudience),
	}, logger.WithField("component", "scanner"))

	// Core
	engine := ordering.NewEngine(taskRepo, ordering.NewLocks(), s.dispatcher, logger.WithField("component", "ordering"))
	boards := membership.NewService(boardRepo, userRepo, s.mail, s.hub, logger.WithField("component", "membership"))

	// Initialize handlers
	userHandler := handler.NewUserHandler(userRepo, auth.NewTokens(cfg.JWTSecret, cfg.JWTExpiry))
	boardHandler := handler.NewBoardHandler(boards)
	listHandler := handler.NewListHandler(engine, boards)
	taskHandler := handler.NewTaskHandler(engine, taskRepo, boards)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)
	eventsHandler := handler.NewEventsHandler(s.hub, boards, 0, logger.WithField("component", "events"))

	s.Engine = routes(logger, db, cfg.JWTSecret, boards, userHandler, boardHandler, listHandler,
		taskHandler, notificationHandler, eventsHandler)
	return s, nil
}

func routes(logger *log.Logger, db *gorm.DB, secret string, roles middleware.RoleLookup,
	userHandler *handler.UserHandler,
	boardHandler *handler.BoardHandler,
	listHandler *handler.ListHandler,
	taskHandler *handler.TaskHandler,
	notificationHandler *handler.NotificationHandler,
	eventsHandler *handler.EventsHandler,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public routes
	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(secret))
	{
		authorized.POST("/boards", boardHandler.Create)
		authorized.GET("/boards", boardHandler.List)

		// Any board member
		member := authorized.Group("/boards/:id", middleware.RequireBoardRole(roles))
		member.GET("", boardHandler.Get)
		member.POST("/leave", boardHandler.Leave)

		member.POST("/lists", listHandler.Create)
		member.PUT("/lists/order", listHandler.Reorder)
		member.DELETE("/lists/:list_id", listHandler.Delete)

		member.POST("/tasks", taskHandler.Create)
		member.GET("/tasks", taskHandler.List)
		member.PATCH("/tasks/:task_id", taskHandler.Update)
		member.POST("/tasks/:task_id/move", taskHandler.Move)
		member.POST("/tasks/:task_id/complete", taskHandler.Complete)
		member.DELETE("/tasks/:task_id", taskHandler.Delete)

		// Board admins only
		admin := authorized.Group("/boards/:id", middleware.RequireBoardRole(roles, model.RoleAdmin))
		admin.DELETE("", boardHandler.Delete)
		admin.POST("/members", boardHandler.Invite)
		admin.PUT("/members/:user_id", boardHandler.ChangeRole)
		admin.DELETE("/members/:user_id", boardHandler.RemoveMember)

		authorized.GET("/notifications", notificationHandler.List)
		authorized.POST("/notifications/:id/read", notificationHandler.MarkRead)

		authorized.GET("/events", eventsHandler.Stream)
		authorized.POST("/events/:session_id/join", eventsHandler.Join)
		authorized.POST("/events/:session_id/leave", eventsHandler.Leave)
		authorized.POST("/events/:session_id/register", eventsHandler.Register)
	}
	return r
}

// start launches the background workers. The dispatcher runs on its own
// context so Close can drain queued events after the run context is gone.
func (s *Server) start() {
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.dispatcher.Start(context.Background())
	if s.relay != nil {
		go s.relay.Run(runCtx)
	}
	if s.scanner != nil {
		go s.scanner.Run(runCtx)
	}
}

// stop halts the scanner and relay, then drains events and mail.
func (s *Server) stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.dispatcher.Close()
	s.mail.Close()
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.DB != nil {
		if sqlDB, err := s.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

func (s *Server) Run() {
	s.start()

	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		s.logger.Infof("🚀 Server running on port %s", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatalf("❌ Failed to listen: %s", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	s.logger.Info("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Streams only end with their request context, so close them first.
	s.hub.DisconnectAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Errorf("❌ Server forced to shutdown: %s", err)
	}
	s.stop()

	s.logger.Info("✅ Server exited properly")
}
