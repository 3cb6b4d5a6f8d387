package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/scavenger/constants"
	"github.com/joseph-ayodele/scavenger/internal/common"
	"github.com/joseph-ayodele/scavenger/internal/entity"
	"github.com/joseph-ayodele/scavenger/internal/feed"
	"github.com/joseph-ayodele/scavenger/internal/flyers"
)

// FeedService serves the local extraction records and the published events.
type FeedService interface {
	ExtractAndStore(ctx context.Context, up feed.Upload) (feed.ExtractResult, error)
	List(ctx context.Context) ([]entity.ExtractionRecord, error)
	Upcoming(ctx context.Context, now time.Time, limit int) ([]entity.ExtractionRecord, error)
	Publish(ctx context.Context, req feed.PublishRequest) (entity.PublishedEvent, error)
	Range(ctx context.Context, from, to *time.Time) ([]entity.PublishedEvent, error)
}

// FlyerService owns flyer uploads and extraction by flyer id.
type FlyerService interface {
	Upload(ctx context.Context, filename, mimeType string, b []byte) (entity.Flyer, error)
	Extract(ctx context.Context, flyerID string) (flyers.ExtractResult, error)
}

type Exporter interface {
	ExtractionsXLSX(ctx context.Context) ([]byte, error)
}

// ImageCache copies allow-listed remote images into the uploads directory.
type ImageCache interface {
	Cache(ctx context.Context, rawURL string) (localURL string, cached bool, err error)
}

// Deps are the services behind the routes. Metrics may be nil.
type Deps struct {
	Feed       FeedService
	Flyers     FlyerService
	Export     Exporter
	Images     ImageCache
	UploadsDir string
	Metrics    http.Handler
}

type Server struct {
	cfg      common.ServerConfig
	deps     Deps
	router   *gin.Engine
	http     *http.Server
	health   *HealthServer
	maxBytes int64
	now      func() time.Time
	logger   *slog.Logger
}

func NewServer(cfg common.ServerConfig, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	mb := cfg.MaxUploadMB
	if mb <= 0 {
		mb = constants.MaxUploadMBDefault
	}
	s := &Server{
		cfg:      cfg,
		deps:     deps,
		maxBytes: int64(mb) << 20,
		now:      time.Now,
		logger:   logger,
	}

	router := gin.New()
	router.MaxMultipartMemory = s.maxBytes
	router.Use(gin.Recovery(), RequestID(), RequestLogger(logger))
	s.routes(router)
	s.router = router

	s.http = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if cfg.GRPCHealthAddr != "" {
		s.health = NewHealthServer(logger)
	}
	return s
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if s.deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.deps.Metrics))
	}
	if s.deps.UploadsDir != "" {
		r.Static("/uploads", s.deps.UploadsDir)
	}

	local := r.Group("/api/local")
	local.POST("/extract", s.localExtract)
	local.GET("/events", s.localEvents)
	local.GET("/upcoming", s.localUpcoming)
	local.GET("/events/export", s.exportEvents)
	local.POST("/cache-image", s.cacheImage)

	api := r.Group("/api")
	api.POST("/flyers", s.uploadFlyer)
	api.POST("/flyers/:flyerId/extract", s.extractFlyer)
	api.POST("/events", s.createEvent)
	api.GET("/events", s.listEvents)
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves HTTP (and the gRPC health probe when configured) until ctx is
// cancelled, then shuts both down within shutdownTimeout.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 2)

	if s.health != nil {
		lis, err := net.Listen("tcp", s.cfg.GRPCHealthAddr)
		if err != nil {
			return fmt.Errorf("listen grpc health %s: %w", s.cfg.GRPCHealthAddr, err)
		}
		go func() {
			if err := s.health.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc health: %w", err)
			}
		}()
	}

	go func() {
		s.logger.Info("server.http.listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http serve: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	s.logger.Info("server.shutdown", "timeout_ms", shutdownTimeout.Milliseconds())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if s.health != nil {
		s.health.Stop()
	}
	if err := s.http.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("http shutdown: %w", err)
	}
	return runErr
}
