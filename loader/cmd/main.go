package main

import (
	"context"
	"log"

	"ragapi/app/server"
	"ragapi/loader/internal"
	"ragapi/loader/service"
	"ragapi/model"
	"ragapi/store"

	"github.com/joho/godotenv"
)

func init() {
	mustLoadEnvVariables()
}

func main() {
	ctx := context.Background()
	pool, err := store.NewPostgresStore(ctx, server.PostgresConnStr())
	if err != nil {
		log.Fatal("error to connect to Postgres database", err)
		return
	}

	if err := pool.Init(ctx); err != nil {
		log.Fatal("error to create tables", err)
		return
	}

	svc, err := service.New(pool, model.NewEmbedderFromEnv(), internal.ConfigFromEnv())
	if err != nil {
		log.Fatal("error to start loader service", err)
		return
	}
	svc.Run()

	log.Println("Closing database connection pool...")
	if err := pool.Close(); err != nil {
		log.Printf("error closing pool: %v\n", err)
	}
}

func mustLoadEnvVariables() {
	if err := godotenv.Load(); err != nil {
		log.Fatal("Error loading .env file")
	}
}
