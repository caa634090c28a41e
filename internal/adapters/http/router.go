package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/studylink/gateway/internal/adapters/rtc"
	"github.com/studylink/gateway/internal/adapters/signal"
	"github.com/studylink/gateway/internal/app"
	"github.com/studylink/gateway/internal/config"
	"github.com/studylink/gateway/internal/domain"
)

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, orch *app.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("StudyLinkSessions", store))
	r.Use(ClientTokenMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	ctrl := signal.NewSignalWSController(orch, rtc.DefaultConfig(), cfg.ReadLimit, cfg.PingPeriod)

	api := r.Group("/api")

	// Admission management for the surrounding application: membership
	// checks and revocation are REST, everything realtime goes over WS.
	api.GET("/rooms/:room/members/:user", func(c *gin.Context) {
		ok, err := orch.Admission.IsAdmitted(c.Request.Context(), domain.RoomID(c.Param("room")), domain.UserID(c.Param("user")))
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "membership check failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"admitted": ok})
	})

	api.DELETE("/rooms/:room/members/:user", func(c *gin.Context) {
		room, user := domain.RoomID(c.Param("room")), domain.UserID(c.Param("user"))
		if err := orch.Admission.Revoke(c.Request.Context(), room, user); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "revoke failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"roomId": string(room), "userId": string(user)})
	})
	api.GET("/ws/signal", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("token", c.GetString("client_token")).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	return r
}
