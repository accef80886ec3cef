package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/memoria-ai/memoria/internal/config"
	"github.com/memoria-ai/memoria/internal/httpapi"
	"github.com/memoria-ai/memoria/internal/model"
	"github.com/memoria-ai/memoria/internal/observability"
	"github.com/memoria-ai/memoria/internal/session"
	"github.com/memoria-ai/memoria/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP memory bridge",
		Long:  "Serve the memory engine over HTTP for the capture extension and other local collaborators.",
		Run:   runServe,
	}

	cmd.Flags().String("bind", "", "Bind address (overrides MEMORIA_BIND_ADDR)")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		exitErr("load config", err)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if bind, _ := cmd.Flags().GetString("bind"); bind != "" {
		cfg.BindAddr = bind
	}
	if recoverFlag {
		cfg.RecoverCorrupt = true
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	st, err := store.NewSQLiteStore(cfg.DBPath, store.Options{
		RecoverCorrupt: cfg.RecoverCorrupt,
		OnWrite: func(r model.MemoryRecord) {
			metrics.Writes.WithLabelValues("accepted").Inc()
		},
	})
	if err != nil {
		exitErr("open store", err)
	}
	defer st.Close()
	log.Printf("memory store ready at %s", cfg.DBPath)

	sessions := session.NewManager(st)
	server := httpapi.New(cfg, st, sessions, metrics)

	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: server.Router(),
	}

	go func() {
		log.Printf("memory bridge listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Printf("memory bridge stopped")
}
