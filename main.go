// main.go
package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clubverify/kyc-backend/config"
	"github.com/clubverify/kyc-backend/endpoint"
	"github.com/clubverify/kyc-backend/middleware"
	"github.com/clubverify/kyc-backend/model"
	"github.com/clubverify/kyc-backend/notify"
	"github.com/clubverify/kyc-backend/risk"
	"github.com/clubverify/kyc-backend/util"
)

func main() {
	// Load the configuration
	cfg := config.LoadConfig()

	db, err := config.ConnectMySQL()
	if err != nil {
		log.Fatalf("Error connecting to MySQL: %v", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Role{},
		&model.Session{},
		&model.Submission{},
		&model.DeviceData{},
		&model.SecurityLog{},
	); err != nil {
		log.Fatalf("Error migrating schema: %v", err)
	}
	if err := model.SeedRoles(db); err != nil {
		log.Fatalf("Error seeding roles: %v", err)
	}

	// Security events persist to the same database, best-effort.
	util.SetSecurityLoggerDB(db)
	util.InitUserProfileCacheFromEnv()

	// Sessions live in Redis when it is reachable, in-process otherwise.
	var store util.SessionStore
	if rdb, err := config.ConnectRedis(); err == nil && rdb != nil {
		store = util.NewRedisSessionStore(rdb)
	} else {
		if err != nil {
			log.Printf("Redis unavailable, using in-memory session store: %v", err)
		}
		store = util.NewMemorySessionStore()
	}

	analyzerOpts := []risk.Option{}
	if cfg.IPLookupEndpoint != "" {
		analyzerOpts = append(analyzerOpts, risk.WithEndpoint(cfg.IPLookupEndpoint))
	}
	if cfg.GeoIPDBPath != "" {
		analyzerOpts = append(analyzerOpts, risk.WithLocalGeoIP(cfg.GeoIPDBPath))
	}
	analyzer := risk.NewAnalyzer(cfg.IPLookupAPIKey, analyzerOpts...)
	defer analyzer.Close()

	dispatcher := notify.NewDispatcherFromConfig(cfg)

	// Set Gin mode from config
	gin.SetMode(cfg.GinMode)

	router := gin.Default()
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DatabaseMiddleware(db))
	router.Use(middleware.EndpointCallLogger())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Welcome to %s!", cfg.AppName),
		})
	})

	loginLimiter := middleware.RateLimiter(middleware.RateLimitConfig{Limit: 5, Window: 15 * time.Minute})
	submitLimiter := middleware.RateLimiter(middleware.RateLimitConfig{Limit: 10, Window: time.Hour})

	router.POST("/login", loginLimiter, endpoint.Login(store))
	router.DELETE("/logout", endpoint.Logout(store))
	router.GET("/token/validate", endpoint.ValidateToken(store))

	// Public intake
	router.POST("/kyc/submit", submitLimiter, endpoint.SubmitKYC(analyzer, dispatcher))
	router.GET("/kyc/status/:submissionId", endpoint.SubmissionStatus)

	// Admin review
	review := router.Group("/kyc", middleware.SessionAuth(store), middleware.RequireAdmin())
	review.GET("/submissions", endpoint.ListSubmissions)
	review.GET("/submission/:id", endpoint.GetSubmissionDetail)
	review.PUT("/submission/:id/status", endpoint.UpdateSubmissionStatus)

	// Role-scoped reporting
	report := router.Group("/report", middleware.SessionAuth(store))
	report.GET("/settlements", endpoint.ListSettlements)
	report.GET("/club-settlements", endpoint.ListClubSettlements)
	report.GET("/clubs", endpoint.ListClubs)
	report.GET("/members", endpoint.ListMembers)

	// Start server on specified port
	address := fmt.Sprintf(":%d", cfg.AppPort)
	if err := router.Run(address); err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}
