package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/certifypro-backend/internal/config"
	"github.com/stemsi/certifypro-backend/internal/handler"
	"github.com/stemsi/certifypro-backend/internal/middleware"
	"github.com/stemsi/certifypro-backend/internal/response"
	"github.com/stemsi/certifypro-backend/internal/service"
)

// catalogMaxAge is how long clients may cache catalog responses.
const catalogMaxAge = 5 * time.Minute

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	Exam          *handler.ExamHandler
	Dashboard     *handler.DashboardHandler
	StudentPortal *handler.StudentPortalHandler
	WS            *handler.WSHandler
	System        *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// authLimiter may be nil, which leaves the auth endpoints unthrottled.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	authLimiter *middleware.RateLimiter,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID and access log for every request.
	router.Use(response.RequestLogger(log))

	router.Use(middleware.Brotli())

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	router.GET("/health", handlers.System.Health)

	api := router.Group("/api/v1")

	// ─── 0. Auth ───────────────────────────────────────────────────────
	authGroup := api.Group("/auth")
	{
		public := authGroup.Group("")
		if authLimiter != nil {
			public.Use(authLimiter.Middleware())
		}
		public.POST("/register", handlers.Auth.Register)
		public.POST("/login", handlers.Auth.Login)

		// Logout only needs a valid token: a superseded session may still
		// log itself out without affecting the newer one.
		authGroup.POST("/logout", middleware.RequireJWT(authService), handlers.Auth.Logout)
		authGroup.GET("/me",
			middleware.RequireJWT(authService),
			middleware.CheckCurrentSession(authService),
			middleware.NoStore(),
			handlers.Auth.Me,
		)
	}

	// ─── 1. Public Catalog ─────────────────────────────────────────────
	exams := api.Group("/exams")
	exams.Use(middleware.CacheControl(catalogMaxAge))
	{
		exams.GET("", handlers.Exam.ListExams)
		exams.GET("/:exam_id", handlers.Exam.GetExam)
	}

	// ─── 2. Student API (JWT + current session) ────────────────────────
	student := api.Group("/student")
	student.Use(
		middleware.RequireJWT(authService),
		middleware.CheckCurrentSession(authService),
		middleware.NoStore(),
	)
	{
		student.GET("/dashboard", handlers.Dashboard.GetDashboard)
		student.GET("/results", handlers.StudentPortal.ListResults)

		exam := student.Group("/exams/:exam_id")
		{
			exam.GET("/result", handlers.StudentPortal.GetExamResult)
			exam.GET("/certificate", handlers.StudentPortal.GetCertificate)
			exam.GET("/certificate.pdf", handlers.StudentPortal.DownloadCertificate)

			exam.POST("/session", handlers.StudentPortal.OpenSession)
			exam.GET("/session", handlers.StudentPortal.GetSession)
			exam.DELETE("/session", handlers.StudentPortal.AbandonSession)
			exam.POST("/session/start", handlers.StudentPortal.StartSession)
			exam.PUT("/session/answers", handlers.StudentPortal.Answer)
			exam.POST("/session/navigate", handlers.StudentPortal.Navigate)
			exam.POST("/session/submit", handlers.StudentPortal.Submit)
			exam.GET("/session/result", handlers.StudentPortal.GetSubmittedResult)
		}
	}

	// ─── 3. WebSocket ──────────────────────────────────────────────────
	// The session marker is checked inside the handler before the upgrade.
	wsGroup := router.Group("/ws/v1")
	wsGroup.Use(middleware.RequireWSAuth(authService))
	{
		wsGroup.GET("/student/exams/:exam_id/stream", handlers.WS.ExamWebSocketStream)
	}

	return router
}
