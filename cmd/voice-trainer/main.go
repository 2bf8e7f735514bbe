package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/mikey/voice-retrieval/internal/adapters/source"
	"github.com/mikey/voice-retrieval/internal/core"
	"github.com/mikey/voice-retrieval/internal/di"
)

// ingestBatchSize bounds how many emails go through one ingestion pass
const ingestBatchSize = 100

func main() {
	flags := di.ParseFlags()

	// Build the dependency injection container
	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	service *core.RetrievalService,
	index core.VectorIndex,
	flags *di.CLIFlags,
) error {
	defer logger.Sync()

	if flags.UserID == "" {
		return fmt.Errorf("a user ID is required (-user)")
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	emails, err := source.NewJSONLSource(flags.InputFile, flags.UserID, logger)
	if err != nil {
		return err
	}
	defer emails.Close()

	logger.Info("Ingesting sent emails",
		zap.String("user_id", flags.UserID),
		zap.String("input", flags.InputFile))

	total := core.IngestResult{}
	batch := make([]*core.SentEmail, 0, ingestBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		result, err := service.IngestEmails(ctx, batch)
		if err != nil {
			return fmt.Errorf("failed to ingest batch: %w", err)
		}
		total.Stored += result.Stored
		total.SkippedShort += result.SkippedShort
		total.SkippedDuplicates += result.SkippedDuplicates
		total.Errors = append(total.Errors, result.Errors...)
		total.Incomplete = total.Incomplete || result.Incomplete
		batch = batch[:0]
		return nil
	}

	for {
		email, err := emails.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				logger.Warn("Ingestion interrupted, flushing current batch")
				total.Incomplete = true
				break
			}
			return err
		}

		batch = append(batch, email)
		if len(batch) >= ingestBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if ctx.Err() == nil {
		if err := flush(); err != nil {
			return err
		}
	}

	// Print summary
	fmt.Printf("\n=== Ingestion Summary ===\n")
	fmt.Printf("Stored: %d\n", total.Stored)
	fmt.Printf("Skipped (too short): %d\n", total.SkippedShort)
	fmt.Printf("Skipped (near-duplicates): %d\n", total.SkippedDuplicates)
	fmt.Printf("Errors: %d\n", len(total.Errors))
	fmt.Printf("Incomplete: %t\n", total.Incomplete)
	for _, ingestErr := range total.Errors {
		fmt.Printf("  email %s: %s\n", ingestErr.EmailID, ingestErr.Reason)
	}

	stats, err := service.GetRelationshipStats(context.Background(), flags.UserID)
	if err != nil {
		logger.Warn("Failed to read relationship stats", zap.Error(err))
	} else if len(stats) > 0 {
		fmt.Printf("\n=== Stored Examples by Relationship ===\n")
		for relType, count := range stats {
			fmt.Printf("%s: %d\n", relType, count)
		}
	}

	// Close the index if needed
	if closer, ok := index.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close vector index", zap.Error(err))
		}
	}

	return nil
}
