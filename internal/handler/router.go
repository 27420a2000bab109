package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"invitely/eventhub/internal/config"
	"invitely/eventhub/internal/handler/middleware"
	"invitely/eventhub/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	authn service.SenderAuthenticator,
	guestService service.GuestService,
	eventHandler *EventHandler,
	guestHandler *GuestHandler,
	galleryHandler *GalleryHandler,
	galleryHub *GalleryHub,
	blobHandler *BlobHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	senderAuth := middleware.SenderAuth(authn)

	events := r.Group("/events")
	{
		events.POST("", senderAuth, eventHandler.Create)
		events.GET("", senderAuth, eventHandler.List)
		events.GET("/:id", middleware.OptionalSenderAuth(authn), eventHandler.Get)
		events.POST("/:id/guests", senderAuth, eventHandler.AddGuests)
		events.POST("/:id/send", senderAuth, eventHandler.SendInvitations)
	}

	// Guest tokens are the whole credential; throttle guessing.
	limiter := middleware.NewRateLimiter(cfg.RateLimit.GuestRequests, cfg.RateLimit.Window)
	guests := r.Group("/guest", limiter.Middleware())
	{
		guests.GET("/:token", guestHandler.Resolve)
		guests.PUT("/:token/profile", guestHandler.UpdateProfile)
		guests.DELETE("/:token", guestHandler.Delete)
	}

	participant := middleware.ParticipantAuth(authn, guestService, "eventId")
	gallery := r.Group("/gallery")
	{
		gallery.GET("/:eventId", galleryHandler.List)
		gallery.GET("/:eventId/ws", galleryHub.Handle)
		gallery.POST("/:eventId/upload", limiter.Middleware(), participant, galleryHandler.Upload)
		gallery.POST("/:eventId/like", limiter.Middleware(), participant, galleryHandler.ToggleLike)
		gallery.POST("/:eventId/comment", limiter.Middleware(), participant, galleryHandler.AddComment)
		gallery.DELETE("/:eventId/:imageId", limiter.Middleware(), participant, galleryHandler.Delete)
	}

	if blobHandler != nil {
		r.GET("/blobs/*path", blobHandler.Get)
	}

	return r
}
