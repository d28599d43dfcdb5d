package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ytgrab/ytgrab/internal/core/extractor"
)

// Store is the credential/history backend consumed by the HTTP layer.
type Store interface {
	Register(username, password string) error
	Login(username, password string) error
	RecordDownload(username, url string) error
	Downloads(username string) ([]string, bool)
}

// Extractor resolves a video URL into metadata, formats and media files.
type Extractor interface {
	Probe(ctx context.Context, url string) (*extractor.Metadata, error)
	Formats(ctx context.Context, url string) ([]extractor.Format, error)
	Fetch(ctx context.Context, url, formatID, dest string) error
}

// Server is the HTTP server for ytgrab
type Server struct {
	addr        string
	downloadDir string
	staticDir   string

	store  Store
	ex     Extractor
	engine *gin.Engine
	server *http.Server
}

// New creates a new HTTP server. staticDir holds the landing page; an
// empty value disables the static route.
func New(addr, downloadDir, staticDir string, store Store, ex Extractor) *Server {
	s := &Server{
		addr:        addr,
		downloadDir: downloadDir,
		staticDir:   staticDir,
		store:       store,
		ex:          ex,
	}

	gin.SetMode(gin.ReleaseMode)
	s.engine = gin.New()
	s.engine.Use(gin.Recovery())
	s.engine.Use(s.loggingMiddleware())
	// Any origin may call the API; preflight OPTIONS is answered here.
	s.engine.Use(cors.Default())

	if staticDir != "" {
		s.engine.StaticFile("/", filepath.Join(staticDir, "index.html"))
	}

	s.engine.GET("/health", s.handleHealth)
	s.engine.POST("/register", s.handleRegister)
	s.engine.POST("/login", s.handleLogin)
	s.engine.POST("/video_info", s.handleVideoInfo)
	s.engine.POST("/formats", s.handleFormats)
	s.engine.POST("/download", s.handleDownload)
	s.engine.POST("/history", s.handleHistory)

	return s
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start starts the HTTP server
func (s *Server) Start() error {
	if err := os.MkdirAll(s.downloadDir, 0755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // No timeout for downloads
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Starting ytgrab server on %s", s.addr)
	log.Printf("Download directory: %s", s.downloadDir)

	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("%s %s %s", c.Request.Method, c.Request.URL.Path, time.Since(start))
	}
}
