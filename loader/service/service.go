package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"ragapi/ingest"
	"ragapi/loader/internal"
	"ragapi/model"
	"ragapi/store"
	"ragapi/types"
)

// Service ingests files dropped into a watched folder: .txt/.md through the
// text path, .json row sets through the sync engine.
type Service struct {
	logger *slog.Logger
	texts  *ingest.TextIngestor
	rows   *ingest.Syncer
	loader *internal.FileLoader
}

func New(storer store.DBStorer, embedder model.EmbedderInterface, cfg internal.Config) (*Service, error) {
	loader, err := internal.NewFileLoader(cfg)
	if err != nil {
		return nil, err
	}
	return &Service{
		logger: slog.Default(),
		texts:  ingest.NewTextIngestor(storer, embedder),
		rows:   ingest.NewSyncer(storer),
		loader: loader,
	}, nil
}

func (s *Service) Stop() {
	s.logger.Info("Loader Service stopped")
}

func (s *Service) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fileChan := make(chan string, 10)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(fileChan)
		s.loader.WatchFile(ctx, fileChan)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.ProcessFiles(ctx, fileChan)
	}()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)

	<-sigch
	log.Println("Received shutdown signal, shutting down gracefully...")

	cancel()
	signal.Stop(sigch)
	close(sigch)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("All goroutines stopped successfully")
	case <-shutdownCtx.Done():
		log.Println("Timeout waiting for goroutines to stop, forcing shutdown...")
	}

	s.Stop()
}

// ProcessFiles drains the file channel, ingesting each file and archiving it.
// A failed file goes to the quarantine folder instead of the archive.
func (s *Service) ProcessFiles(ctx context.Context, fileChan <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case filePath, ok := <-fileChan:
			if !ok {
				return
			}

			if err := s.IngestFile(ctx, filePath); err != nil {
				log.Printf("[LOADER] failed to ingest %s: %v", filePath, err)
				s.loader.MoveToArchive(filePath, true)
			} else {
				s.loader.MoveToArchive(filePath, false)
			}
			s.loader.Done(filePath)
		}
	}
}

// IngestFile routes one file into the matching ingestion path.
func (s *Service) IngestFile(ctx context.Context, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	base := filepath.Base(filePath)
	ext := strings.ToLower(filepath.Ext(base))
	fileID := strings.TrimSuffix(base, ext)
	sourceURL := "file://" + filePath

	switch ext {
	case ".json":
		var rows []json.RawMessage
		if err := json.Unmarshal(data, &rows); err != nil {
			return fmt.Errorf("row file must be a JSON array: %w", err)
		}
		result, err := s.rows.SyncRows(ctx, types.RowsIngestParams{
			FileID: fileID,
			Title:  base,
			URL:    sourceURL,
			Rows:   rows,
		})
		if err != nil {
			return err
		}
		log.Printf("[LOADER] synced %s: %d inserted, %d deleted", base, result.RowsInserted, result.RowsDeleted)
		return nil
	case ".txt", ".md":
		inserted, err := s.texts.Ingest(ctx, types.TextIngestParams{
			FileID:  fileID,
			Title:   base,
			URL:     sourceURL,
			Content: string(data),
		})
		if err != nil {
			return err
		}
		log.Printf("[LOADER] ingested %s: %d chunks", base, inserted)
		return nil
	default:
		return fmt.Errorf("unsupported file type: %s", ext)
	}
}
