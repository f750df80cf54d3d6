package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"collegedesk/internal/auth"
	"collegedesk/internal/config"
	"collegedesk/internal/exam"
	"collegedesk/internal/handler"
	"collegedesk/internal/httpmiddleware"
	"collegedesk/internal/metrics"
	"collegedesk/internal/registry"
	"collegedesk/internal/store"
	"collegedesk/internal/timetable"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Println("loaded .env")
	}
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	registryRepo := registry.NewRepository(db.Client)
	registrySvc := registry.NewService(registryRepo, cfg.EmailDomain)

	examRepo := exam.NewRepository(db.Client)
	examSvc := exam.NewService(examRepo)

	timetableRepo := timetable.NewRepository(db.Client)
	timetableSvc := timetable.NewService(timetableRepo, redisClient, cfg.TimetableCacheTTL)

	h := handler.New(registrySvc, examSvc, timetableSvc, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())
	r.Use(metrics.GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	api := r.Group("/api")
	api.POST("/register", h.Register)
	api.POST("/login", h.Login)
	api.GET("/get/:rollno", h.ExamsByRollNo)

	authed := api.Group("", auth.Require(cfg.JWTSigningKey, cfg.JWTIssuer, registryRepo))
	authed.GET("/info", h.Profile)
	authed.POST("/upload", h.UploadSittings)
	authed.POST("/create/shift", h.CreateShift)
	authed.POST("/create/timetable", h.CreateTimetable)
	authed.GET("/timetable", h.GetTimetable)
	authed.POST("/extra", h.AddExtraClass)
	authed.PUT("/timetable/cancel/:id", h.UpdateClassStatus)
	authed.DELETE("/timetable/extra/:id", h.DeleteExtraClass)
	authed.GET("/departments", h.ListDepartments)

	admin := authed.Group("", auth.RequireAdmin())
	admin.POST("/department", h.AddDepartment)
	admin.GET("/data", h.ListAccounts)
	admin.PUT("/data/:userId/role", h.UpdateRole)
	admin.GET("/export/sittings", h.ExportSittings)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
