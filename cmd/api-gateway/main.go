package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/scolintra/exam-api/api/swagger"
	"github.com/scolintra/exam-api/internal/handler"
	internalmiddleware "github.com/scolintra/exam-api/internal/middleware"
	"github.com/scolintra/exam-api/internal/models"
	"github.com/scolintra/exam-api/internal/repository"
	"github.com/scolintra/exam-api/internal/service"
	"github.com/scolintra/exam-api/internal/wizard"
	"github.com/scolintra/exam-api/pkg/cache"
	"github.com/scolintra/exam-api/pkg/config"
	"github.com/scolintra/exam-api/pkg/database"
	"github.com/scolintra/exam-api/pkg/logger"
	corsmiddleware "github.com/scolintra/exam-api/pkg/middleware/cors"
	reqidmiddleware "github.com/scolintra/exam-api/pkg/middleware/requestid"
)

// @title Exam Authoring API
// @version 1.0.0
// @description Exam authoring and delivery service for the school intranet
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	examRepo := repository.NewExamRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	referenceRepo := repository.NewReferenceRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	sessionRepo := repository.NewWizardSessionRepository(redisClient, cfg.Wizard.SessionTTL, logr)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	policy := wizard.Policy{
		RequirePointsMatch: cfg.Wizard.RequirePointsMatch,
		RequireSession:     cfg.Wizard.RequireSession,
		RequireCenter:      cfg.Wizard.RequireCenter,
		RequireRoster:      cfg.Wizard.RequireRoster,
		PadSeatNumbers:     cfg.Wizard.PadSeatNumbers,
		PickerLimit:        cfg.Wizard.PickerLimit,
	}

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "exam-api",
		Audience:           []string{"exam-api"},
	})
	wizardService := service.NewWizardService(sessionRepo, examRepo, courseRepo, studentRepo, policy, logr)
	examService := service.NewExamService(examRepo, statsRepo, cacheRepo, cfg.Stats.CacheTTL, logr)
	referenceService := service.NewReferenceService(referenceRepo, courseRepo, logr)
	metricsService := service.NewMetricsService()

	authHandler := handler.NewAuthHandler(authService)
	wizardHandler := handler.NewWizardHandler(wizardService, metricsService)
	examHandler := handler.NewExamHandler(examService)
	referenceHandler := handler.NewReferenceHandler(referenceService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "cache unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", internalmiddleware.JWT(authService), authHandler.Logout)

	authoring := internalmiddleware.RequireRoles(models.RoleProfessor, models.RoleAdmin)

	exams := api.Group("/exams", internalmiddleware.JWT(authService))
	exams.GET("", examHandler.List)
	exams.GET("/:id", examHandler.Get)
	exams.GET("/:id/stats", examHandler.Stats)

	refs := api.Group("/references", internalmiddleware.JWT(authService), authoring)
	refs.GET("/courses", referenceHandler.Courses)
	refs.GET("/sessions", referenceHandler.Sessions)
	refs.GET("/centers", referenceHandler.Centers)

	wiz := api.Group("/wizard", internalmiddleware.JWT(authService), authoring)
	wiz.GET("/policy", wizardHandler.Policy)
	wiz.GET("/students", wizardHandler.SearchStudents)
	wiz.POST("/sessions", wizardHandler.StartSession)
	wiz.GET("/sessions/:id", wizardHandler.GetSession)
	wiz.POST("/sessions/:id/next", wizardHandler.Next)
	wiz.POST("/sessions/:id/back", wizardHandler.Back)
	wiz.PATCH("/sessions/:id/exam", wizardHandler.UpdateExam)
	wiz.GET("/sessions/:id/questions/new", wizardHandler.NewQuestion)
	wiz.PUT("/sessions/:id/questions", wizardHandler.UpsertQuestion)
	wiz.DELETE("/sessions/:id/questions/:number", wizardHandler.DeleteQuestion)
	wiz.POST("/sessions/:id/questions/:number/move", wizardHandler.MoveQuestion)
	wiz.POST("/sessions/:id/questions/:number/options", wizardHandler.AddOption)
	wiz.DELETE("/sessions/:id/questions/:number/options/:optionId", wizardHandler.RemoveOption)
	wiz.GET("/sessions/:id/course-students", wizardHandler.CourseStudents)
	wiz.POST("/sessions/:id/students", wizardHandler.AddStudents)
	wiz.DELETE("/sessions/:id/students/:studentId", wizardHandler.RemoveStudent)
	wiz.DELETE("/sessions/:id/students", wizardHandler.RemoveAllStudents)
	wiz.POST("/sessions/:id/seat-numbers", wizardHandler.GenerateSeatNumbers)
	wiz.POST("/sessions/:id/save", wizardHandler.SaveDraft)
	wiz.POST("/sessions/:id/publish", wizardHandler.Publish)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
