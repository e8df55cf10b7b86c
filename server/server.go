// Copyright 2025 Blessan Alex
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Blessan-Alex/MalRag/ai"
	"github.com/Blessan-Alex/MalRag/core"
	"github.com/Blessan-Alex/MalRag/credentials"
	"github.com/Blessan-Alex/MalRag/engine"
	"github.com/Blessan-Alex/MalRag/invoke"
	"github.com/Blessan-Alex/MalRag/jobs"
	"github.com/Blessan-Alex/MalRag/storage"
)

// Ingester is the job submission surface used by the upload routes.
type Ingester interface {
	Submit(filename string) string
	Start(jobID, filePath, filename string) error
	Get(jobID string) (*core.Job, error)
	Jobs() []core.Job
	IngestText(ctx context.Context, text string) error
}

// Querier answers chat questions.
type Querier interface {
	Query(ctx context.Context, question string, opts engine.QueryOptions) (*engine.Answer, error)
}

// Deps are the components the server routes to.
type Deps struct {
	Ingester    Ingester
	Jobs        *jobs.Store
	Querier     Querier
	Transcriber ai.Transcriber
	Registry    storage.DocumentRegistry
	Index       storage.ChunkIndex
	UploadDir   string
}

// Server serves the HTTP API.
type Server struct {
	deps         Deps
	router       *gin.Engine
	hub          *Hub
	upgrader     websocket.Upgrader
	origins      []string
	maxUpload    int64
	maxAudio     int64
	logger       *slog.Logger
	shutdownWait time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithCORSOrigins sets the browser origins allowed to call the API.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithMaxUploadBytes bounds the size of document uploads.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds the router and registers the websocket hub on deps.Jobs.
// The hub does nothing until Run or StartHub is called.
func New(deps Deps, opts ...Option) (*Server, error) {
	switch {
	case deps.Ingester == nil:
		return nil, errors.New("server: ingester required")
	case deps.Jobs == nil:
		return nil, errors.New("server: job store required")
	case deps.Querier == nil:
		return nil, errors.New("server: querier required")
	case deps.Transcriber == nil:
		return nil, errors.New("server: transcriber required")
	case deps.Registry == nil:
		return nil, errors.New("server: document registry required")
	case deps.Index == nil:
		return nil, errors.New("server: chunk index required")
	case deps.UploadDir == "":
		return nil, errors.New("server: upload directory required")
	}

	s := &Server{
		deps:         deps,
		maxUpload:    64 << 20,
		maxAudio:     25 << 20,
		logger:       slog.Default(),
		shutdownWait: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.hub = NewHub(deps.Ingester.Jobs, s.logger)
	deps.Jobs.Observe(s.hub.Publish)
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	r.Use(gin.Recovery(), requestLogger(s.logger), cors(s.origins))

	r.GET("/health", s.health)
	r.GET("/ws", s.subscribe)

	api := r.Group("/api/v1")
	{
		ingest := api.Group("/ingest")
		ingest.POST("/upload", s.upload)
		ingest.GET("/status/:job_id", s.status)
		ingest.GET("/jobs", s.listJobs)
		ingest.POST("/text", s.insertText)

		api.POST("/chat/query", s.query)
		api.POST("/transcribe", s.transcribe)
		api.GET("/documents", s.documents)
		api.GET("/stats", s.stats)
	}
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// StartHub runs the websocket hub until ctx is cancelled.
func (s *Server) StartHub(ctx context.Context) {
	s.hub.Start(ctx)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.StartHub(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownWait)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.origins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

func detail(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"detail": msg})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "MalRag Backend"})
}

func (s *Server) subscribe(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	s.hub.Serve(conn)
}

func (s *Server) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)
	header, err := c.FormFile("file")
	if err != nil {
		detail(c, http.StatusBadRequest, "No file provided")
		return
	}

	filename := filepath.Base(header.Filename)
	tempPath := filepath.Join(s.deps.UploadDir, uuid.NewString()+filepath.Ext(filename))
	if err := c.SaveUploadedFile(header, tempPath); err != nil {
		c.Error(err)
		detail(c, http.StatusInternalServerError, err.Error())
		return
	}

	jobID := s.deps.Ingester.Submit(filename)
	if err := s.deps.Ingester.Start(jobID, tempPath, filename); err != nil {
		c.Error(err)
		detail(c, http.StatusServiceUnavailable, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "processing",
		"message": fmt.Sprintf("File %s uploaded. Processing started.", filename),
		"job_id":  jobID,
	})
}

func (s *Server) status(c *gin.Context) {
	jobID := c.Param("job_id")
	job, err := s.deps.Ingester.Get(jobID)
	if err != nil {
		detail(c, http.StatusNotFound, "Job not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  job.Status,
		"message": job.Message,
		"job_id":  jobID,
		"data":    job,
	})
}

func (s *Server) listJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": s.deps.Ingester.Jobs()})
}

type insertRequest struct {
	Text string `json:"text" binding:"required"`
}

func (s *Server) insertText(c *gin.Context) {
	var req insertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "text is required")
		return
	}
	if err := s.deps.Ingester.IngestText(c.Request.Context(), req.Text); err != nil {
		c.Error(err)
		if errors.Is(err, engine.ErrEmptyText) {
			detail(c, http.StatusBadRequest, err.Error())
			return
		}
		detail(c, providerStatus(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Text inserted successfully"})
}

type queryRequest struct {
	Query           string  `json:"query" binding:"required"`
	Mode            string  `json:"mode"`
	OnlyNeedContext bool    `json:"only_need_context"`
	Limit           int     `json:"limit"`
	MinScore        float32 `json:"min_score"`
}

func (s *Server) query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "query is required")
		return
	}

	answer, err := s.deps.Querier.Query(c.Request.Context(), req.Query, engine.QueryOptions{
		Mode:        req.Mode,
		Limit:       req.Limit,
		MinScore:    req.MinScore,
		OnlyContext: req.OnlyNeedContext,
	})
	if err != nil {
		c.Error(err)
		if errors.Is(err, engine.ErrEmptyQuery) || errors.Is(err, engine.ErrUnknownMode) {
			detail(c, http.StatusBadRequest, err.Error())
			return
		}
		detail(c, http.StatusInternalServerError, "Internal Error: "+err.Error())
		return
	}

	data := answer.Answer
	if req.OnlyNeedContext {
		data = answer.Context
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": data, "sources": answer.Sources})
}

func (s *Server) transcribe(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxAudio)
	header, err := c.FormFile("file")
	if err != nil {
		detail(c, http.StatusBadRequest, "No file provided")
		return
	}

	f, err := header.Open()
	if err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}
	defer f.Close()
	audio, err := io.ReadAll(f)
	if err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}

	text, err := s.deps.Transcriber.Transcribe(c.Request.Context(), audio, audioMIMEType(header.Header.Get("Content-Type"), header.Filename))
	if err != nil {
		c.Error(err)
		if errors.Is(err, ai.ErrEmptyAudio) {
			detail(c, http.StatusBadRequest, err.Error())
			return
		}
		detail(c, providerStatus(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

func audioMIMEType(declared, filename string) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); t != "" {
		return t
	}
	return "audio/mpeg"
}

// providerStatus maps provider failures onto gateway status codes.
func providerStatus(err error) int {
	var exhausted *invoke.ExhaustedError
	switch {
	case errors.Is(err, credentials.ErrNoCredential):
		return http.StatusServiceUnavailable
	case errors.As(err, &exhausted):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) documents(c *gin.Context) {
	docs, err := s.deps.Registry.ListDocuments(c.Request.Context())
	if err != nil {
		c.Error(err)
		detail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if docs == nil {
		docs = []*core.Document{}
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (s *Server) stats(c *gin.Context) {
	ctx := c.Request.Context()
	docs, err := s.deps.Registry.ListDocuments(ctx)
	if err != nil {
		c.Error(err)
		detail(c, http.StatusInternalServerError, err.Error())
		return
	}
	chunks, err := s.deps.Index.CountChunks(ctx)
	if err != nil {
		c.Error(err)
		detail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_documents": len(docs),
		"total_chunks":    chunks,
		"jobs":            s.deps.Jobs.Counts(),
		"system_status":   "optimal",
	})
}
