package server

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"

	"ragapi/app/api"
	"ragapi/app/middleware"
	"ragapi/model"
	"ragapi/retriever"
	"ragapi/store"

	"github.com/gofiber/fiber/v2"
)

var config = fiber.Config{
	ErrorHandler: api.ErrorHandler,
}

type Server struct {
	listenAddr string
	logger     *slog.Logger
}

func NewServer(addr string) *Server {
	return &Server{
		listenAddr: addr,
		logger:     slog.Default(),
	}
}

func (s *Server) Stop() {
	s.logger.Info("server stopped")
}

// PostgresConnStr assembles the pgx connection string from PG_* env vars.
func PostgresConnStr() string {
	port, _ := strconv.Atoi(os.Getenv("PG_PORT"))
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("PG_HOST"), port, os.Getenv("PG_USER"), os.Getenv("PG_PASS"), os.Getenv("PG_DB_NAME"))
}

func (s *Server) Run() {
	ctx := context.Background()
	pool, err := store.NewPostgresStore(ctx, PostgresConnStr())
	if err != nil {
		log.Fatal("error to connect to Postgres database", err)
		return
	}
	defer pool.Close()

	if err := pool.Init(ctx); err != nil {
		log.Fatal("error to create tables", err)
		return
	}

	embedder := model.NewEmbedderFromEnv()
	rag := retriever.New(pool, embedder)

	var (
		app           = fiber.New(config)
		checkHandler  = api.NewCheckHandler()
		ingestHandler = api.NewIngestHandler(pool, embedder)
		searchHandler = api.NewSearchHandler(rag)
		chatHandler   = api.NewChatHandler(pool, rag)
		check         = app.Group("/check")
		apiGroup      = app.Group("/api")
	)

	app.Use(middleware.RequestLogger(s.logger))

	check.Get("/healthy", checkHandler.HandleHealthy)
	apiGroup.Post("/ingest/text", ingestHandler.HandleIngestText)
	apiGroup.Post("/ingest/rows", ingestHandler.HandleIngestRows)
	apiGroup.Get("/search", searchHandler.HandleSearch)
	apiGroup.Post("/chat", chatHandler.HandleChat)

	if err := app.Listen(s.listenAddr); err != nil {
		s.logger.Error("error to start server", "error", err.Error())
		return
	}
}
