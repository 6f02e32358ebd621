package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"github.com/caseflow/caseflow-api/internal/handler"
	"github.com/caseflow/caseflow-api/internal/middleware"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine     *gin.Engine
	patientH   Handler
	taskH      Handler
	activityH  Handler
	dashboardH Handler
	operatorH  Handler
	h          *handler.Handler
	metrics    *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

type Config struct {
	RateLimit  rate.Limit
	RateBurst  int
	CORSConfig middleware.CORSConfig
	Timeout    time.Duration
}

func NewRouter(
	patientH Handler,
	taskH Handler,
	activityH Handler,
	dashboardH Handler,
	operatorH Handler,
	h *handler.Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	r := &Router{
		engine:     engine,
		patientH:   patientH,
		taskH:      taskH,
		activityH:  activityH,
		dashboardH: dashboardH,
		operatorH:  operatorH,
		h:          h,
		metrics:    initRouterMetrics(),
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: timeout}),
	)

	engine.Use(middleware.CORS(config.CORSConfig))

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/health", r.h.LivenessCheck)
	r.engine.GET("/ready", r.h.ReadinessCheck)
	r.engine.GET("/metrics", r.h.MetricsHandler)

	api := r.engine.Group("/api/v1")
	api.Use(middleware.Cache(middleware.DefaultCacheConfig()))

	r.patientH.RegisterRoutes(api)
	r.taskH.RegisterRoutes(api)
	r.activityH.RegisterRoutes(api)
	r.dashboardH.RegisterRoutes(api)
	r.operatorH.RegisterRoutes(api)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics() *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		errorTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of HTTP error responses",
		}, []string{"method", "path", "status"}),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method

		r.metrics.requestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
		r.metrics.requestTotal.WithLabelValues(method, path, status).Inc()
		if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(method, path, status).Inc()
		}
	}
}
