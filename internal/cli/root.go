// Package cli implements the memoria CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/memoria-ai/memoria/internal/config"
	"github.com/memoria-ai/memoria/internal/store"
)

var (
	dbPath      string
	recoverFlag bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "memoria",
	Short: "Persistent conversational memory",
	Long:  "Durable conversational memory with dedup, relationship tracking, and summaries. SQLite-backed, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $MEMORIA_DB or ~/.memoria/memoria.db)")
	RootCmd.PersistentFlags().BoolVar(&recoverFlag, "recover-corrupt", false, "Rebuild the database if the integrity check fails (destroys existing data)")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("MEMORIA_DB"); env != "" {
		return env
	}
	return config.DefaultDBPath()
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(getDBPath(), store.Options{RecoverCorrupt: recoverFlag})
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
