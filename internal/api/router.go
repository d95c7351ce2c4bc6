package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"hostel-ops-backend/config"
	"hostel-ops-backend/internal/identity"
	"hostel-ops-backend/internal/mw"
)

// Idle clients are dropped from the rate limiter after this long.
const limiterIdle = 10 * time.Minute

// NewRouter creates and configures a new Gin router.
func NewRouter(d Deps, cfg config.ServerConfig, reg *prometheus.Registry) *gin.Engine {
	r := gin.New()
	r.TrustedPlatform = cfg.TrustedPlatform
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		slog.Error("Invalid trusted proxies, trusting none", "error", err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery(), mw.RequestLogger())

	if reg != nil {
		r.Use(mw.NewMetrics(reg).Handler())
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
	}
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handler := NewHandler(d)
	limiter := mw.NewClientRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, limiterIdle)

	api := r.Group("/api")
	api.Use(mw.RateLimiter(limiter))
	api.POST("/auth/login", handler.Login)

	authed := api.Group("")
	authed.Use(mw.RequireAuth(d.Tokens, d.Directory))
	if cfg.CacheTTLSeconds > 0 {
		ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
		authed.Use(mw.Cache(cache.New(ttl, 2*ttl), ttl))
	}
	{
		authed.GET("/me", handler.Me)

		authed.GET("/users", mw.Require(identity.ManageUsers), handler.ListUsers)
		authed.POST("/users", mw.Require(identity.ManageUsers), handler.CreateUser)
		authed.GET("/users/:user_id", handler.GetUser)
		authed.GET("/users/:user_id/meal-off", handler.ListUserMealOff)

		authed.PUT("/meals/:user_id/:date", mw.Require(identity.RecordMeals), handler.PutMeal)
		authed.GET("/meals/:user_id", handler.ListMeals)
		authed.GET("/meals/:user_id/stats", handler.MealStats)
		authed.GET("/daily-meals/:date", mw.Require(identity.ViewAllMeals), handler.DailyMeals)

		authed.GET("/rates/:month", handler.GetRate)
		authed.PUT("/rates/:month", mw.Require(identity.SetMealRate), handler.PutRate)

		authed.GET("/rent", mw.Require(identity.RecordRent), handler.RentOverview)
		authed.GET("/rent/:user_id/:month", handler.GetRent)
		authed.PUT("/rent/:user_id/:month", mw.Require(identity.RecordRent), handler.PutRent)

		authed.GET("/summaries/:month", handler.GetFleetSummary)
		authed.GET("/summaries/:month/:user_id", handler.GetSummary)

		authed.POST("/meal-off", handler.SubmitMealOff)
		authed.GET("/meal-off", mw.Require(identity.ViewAllMealOff), handler.ListMealOff)
		authed.GET("/meal-off/pending", mw.Require(identity.ViewAllMealOff), handler.ListPendingMealOff)
		authed.POST("/meal-off/:id/review", mw.Require(identity.ReviewMealOff), handler.ReviewMealOff)

		authed.GET("/push/vapid_public_key", handler.GetVAPIDPublicKey)
		authed.GET("/push/subscriptions", handler.ListSubscriptions)
		authed.PUT("/push/subscriptions", handler.PutSubscription)
		authed.DELETE("/push/subscriptions", handler.DeleteSubscription)
	}

	return r
}
