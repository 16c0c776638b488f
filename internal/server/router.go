// Package server assembles the HTTP router from repositories, handlers and
// middleware.
package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/eventboard/backend/internal/auth"
	"github.com/eventboard/backend/internal/events"
	"github.com/eventboard/backend/internal/middleware"
	"github.com/eventboard/backend/internal/models"
	"github.com/eventboard/backend/internal/organizations"
	"github.com/eventboard/backend/internal/reservations"
	"github.com/eventboard/backend/internal/session"
	"github.com/eventboard/backend/internal/store"
	"github.com/eventboard/backend/internal/uploads"
	"github.com/eventboard/backend/internal/users"
	"github.com/eventboard/backend/pkg/response"
	"github.com/eventboard/backend/pkg/storage"
)

// Deps are the collaborators the router is built from.
type Deps struct {
	Events        store.Collection[models.Event]
	Organizations store.Collection[models.Organization]
	Users         store.Collection[models.User]
	Reservations  store.Collection[models.Reservation]
	Sessions      *session.Manager
	Images        storage.ImageStore
	Logger        *zap.Logger
}

// Options tune the router.
type Options struct {
	CORSAllowedOrigins string
	MaxBodyBytes       int64
	DefaultLocale      string
	// UploadDir, when set, is served read-only under UploadPublicPath.
	UploadDir        string
	UploadPublicPath string
}

// NewRouter wires every route.
func NewRouter(d Deps, opts Options) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	userRepo := users.NewRepository(d.Users)
	orgRepo := organizations.NewRepository(d.Organizations)
	eventRepo := events.NewRepository(d.Events)
	reservationRepo := reservations.NewRepository(d.Reservations)

	authService := auth.NewService(userRepo, orgRepo, opts.DefaultLocale, logger)
	authHandler := auth.NewHandler(authService, d.Sessions, logger)
	userHandler := users.NewHandler(userRepo, logger)
	orgHandler := organizations.NewHandler(orgRepo, userRepo, logger)
	eventHandler := events.NewHandler(eventRepo, orgRepo, logger)
	reservationHandler := reservations.NewHandler(reservationRepo, logger)
	uploadHandler := uploads.NewHandler(d.Images, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(opts.CORSAllowedOrigins))
	router.Use(middleware.BodyLimit(opts.MaxBodyBytes))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics())
	router.Use(middleware.Session(d.Sessions, logger))

	requireAuth := middleware.RequireAuth()
	requireAdmin := middleware.RequireUserType(models.UserTypeAdmin)

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Auth
	router.POST("/signup", authHandler.Signup)
	router.POST("/login", authHandler.Login)
	router.POST("/logout", authHandler.Logout)

	// Users
	router.GET("/users/me", requireAuth, userHandler.Me)

	// Events
	router.GET("/events", eventHandler.List)
	router.GET("/events/:id", eventHandler.Get)
	router.POST("/events", requireAuth, requireAdmin, eventHandler.Create)
	router.PUT("/events/:id", requireAuth, requireAdmin, eventHandler.Update)
	router.DELETE("/events/:id", eventHandler.Delete)
	router.GET("/public/orgs/:slug/events", eventHandler.ListPublic)

	// Organizations
	router.GET("/orgs", orgHandler.List)
	router.GET("/orgs/:id", orgHandler.Get)
	router.POST("/orgs", requireAuth, orgHandler.Create)
	router.PUT("/orgs/:id", requireAuth, requireAdmin, orgHandler.Update)
	router.DELETE("/orgs/:id", orgHandler.Delete)

	// Reservations
	router.GET("/reservations", requireAuth, reservationHandler.List)
	router.GET("/reservations/:id", reservationHandler.Get)
	router.POST("/reservations", reservationHandler.Create)
	router.PUT("/reservations/:id", requireAuth, reservationHandler.Update)
	router.DELETE("/reservations/:id", reservationHandler.Delete)

	// Uploads
	router.POST("/uploads", requireAuth, requireAdmin, uploadHandler.Upload)
	if opts.UploadDir != "" && opts.UploadPublicPath != "" {
		router.Static(opts.UploadPublicPath, opts.UploadDir)
	}

	return router
}
