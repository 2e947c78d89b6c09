package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"kamera/internal/catalog"
	"kamera/internal/daylight"
	"kamera/internal/navigation"
	"kamera/internal/storage"
	"kamera/internal/timestamp"
	"kamera/internal/watcher"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Server struct {
	router   *gin.Engine
	server   *http.Server
	resolver *navigation.Resolver
	catalog  navigation.Catalog
	watcher  *watcher.Watcher
	db       *storage.Database
	port     int
	root     string
	tz       *time.Location
	now      func() time.Time
}

type ServerConfig struct {
	Port     int
	Resolver *navigation.Resolver
	Catalog  navigation.Catalog
	// Watcher and Almanac are optional.
	Watcher  *watcher.Watcher
	Almanac  *storage.Database
	Root     string
	TimeZone *time.Location
	Now      func() time.Time
}

func NewServer(cfg ServerConfig) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router:   router,
		resolver: cfg.Resolver,
		catalog:  cfg.Catalog,
		watcher:  cfg.Watcher,
		db:       cfg.Almanac,
		port:     cfg.Port,
		root:     cfg.Root,
		tz:       cfg.TimeZone,
		now:      cfg.Now,
	}
	if s.tz == nil {
		s.tz = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Archive images
	if s.root != "" {
		s.router.Static("/archive", s.root)
	}

	// Health check
	s.router.GET("/health", s.healthHandler)

	// API routes
	api := s.router.Group("/api/v1")
	{
		api.GET("/latest", s.latestHandler)
		api.GET("/window", s.windowHandler)
		api.GET("/days/:date/images", s.dayImagesHandler)
		api.GET("/views/:kind/:key", s.viewHandler)
		api.GET("/almanac", s.almanacHandler)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}

	log.Printf("API server starting on port %d", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) healthHandler(c *gin.Context) {
	resp := gin.H{
		"status":    "healthy",
		"watching":  false,
		"timestamp": s.now(),
	}
	if s.watcher != nil {
		resp["watching"] = s.watcher.IsWatching()
		if event := s.watcher.Latest(); event != nil {
			resp["latest_image"] = event.Image.Key()
			resp["daylight"] = event.Daylight
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) latestHandler(c *gin.Context) {
	page, err := s.resolver.Latest()
	if err != nil {
		s.fail(c, err)
		return
	}
	if page == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No images in the archive"})
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) windowHandler(c *gin.Context) {
	dateStr := c.DefaultQuery("date", timestamp.DateOf(s.now().In(s.tz)).String())
	date, err := timestamp.ParseDate(dateStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format, expected YYYYMMDD"})
		return
	}

	window, err := s.resolver.Window(date)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":   dateStr,
		"window": window,
	})
}

func (s *Server) dayImagesHandler(c *gin.Context) {
	date, err := timestamp.ParseDate(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format, expected YYYYMMDD"})
		return
	}

	images, err := s.catalog.ImagesForDay(date)
	if err != nil {
		s.fail(c, err)
		return
	}

	window, err := s.resolver.Window(date)
	if err != nil {
		s.fail(c, err)
		return
	}
	if c.Query("all") != "true" {
		images = daylight.Visible(images, window, s.tz)
	}

	c.JSON(http.StatusOK, gin.H{
		"date":   date.String(),
		"window": window,
		"images": images,
	})
}

func (s *Server) viewHandler(c *gin.Context) {
	view, err := s.resolver.ResolveView(c.Param("kind"), c.Param("key"))
	if err != nil {
		s.fail(c, err)
		return
	}
	page, err := s.resolver.Page(view)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) almanacHandler(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Almanac export is not configured"})
		return
	}

	from, errFrom := timestamp.ParseDate(c.Query("from"))
	to, errTo := timestamp.ParseDate(c.Query("to"))
	if errFrom != nil || errTo != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'from' or 'to', expected YYYYMMDD"})
		return
	}

	days, err := s.db.GetRange(from.String(), to.String())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, days)
}

func (s *Server) fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, navigation.ErrInvalidKey),
		errors.Is(err, navigation.ErrUnknownView),
		errors.Is(err, timestamp.ErrInvalidDate),
		errors.Is(err, timestamp.ErrMalformedTimestamp):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrDayNotFound),
		errors.Is(err, catalog.ErrImageNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
