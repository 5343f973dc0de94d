package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcastelli/plandb/pkg/server"
	"github.com/rcastelli/plandb/pkg/storage"
)

var (
	port          string
	dataFile      string
	sweepInterval time.Duration
	planCacheSize int
)

var rootCmd = &cobra.Command{
	Use:   "plandb",
	Short: "An in-memory document store with index-aware query planning",
	Long: `plandb is an in-memory document store core exposing index selection,
covered-query detection, TTL expiry and write-amplification accounting
over a small REST surface.

Without a data file, state lives only in memory and is lost on exit;
with one, a snapshot is written on graceful shutdown.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&port, "port", "8080", "Server port")
	rootCmd.Flags().StringVar(&dataFile, "data-file", "plandb_data"+storage.FileExtension, "Snapshot file path")
	rootCmd.Flags().DurationVar(&sweepInterval, "ttl-sweep-interval", time.Minute, "TTL reaper interval (0 disables)")
	rootCmd.Flags().IntVar(&planCacheSize, "plan-cache-size", 0, "Query plan cache size (0 for default)")
}

func run(cmd *cobra.Command, args []string) error {
	srv := server.NewServer(
		storage.WithTTLSweepInterval(sweepInterval),
		storage.WithPlanCacheSize(planCacheSize),
		storage.WithDataFile(dataFile),
	)
	defer srv.StopBackgroundWorkers()

	log.Printf("INFO: Loading snapshot from: %s", dataFile)
	srv.InitDB(dataFile)
	srv.StartBackgroundWorkers()

	httpServer := &http.Server{
		Addr:    ":" + port,
		Handler: srv.Router(),
	}

	go func() {
		log.Printf("Starting plandb server on :%s", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	log.Printf("INFO: Saving snapshot to: %s", dataFile)
	srv.SaveDB(dataFile)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return err
	}

	log.Println("Server exited")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
