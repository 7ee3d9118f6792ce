// Package cmd contains the admin commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ardanlabs/milkchain/business/sys/database"
	"github.com/ardanlabs/milkchain/foundation/keystore"
	"github.com/spf13/cobra"
)

var (
	accountName string
	accountPath string
	dbURI       string
	dbName      string
	dbTimeout   time.Duration
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "private", "Name of the private key file.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zblock/accounts/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().StringVar(&dbURI, "db-uri", "mongodb://localhost:27017", "Connection string for the document store.")
	rootCmd.PersistentFlags().StringVar(&dbName, "db-name", "milk-chain", "Name of the database.")
	rootCmd.PersistentFlags().DurationVar(&dbTimeout, "db-timeout", 5*time.Second, "Time allowed for each store operation.")
}

var rootCmd = &cobra.Command{
	Use:          "admin",
	Short:        "Administrative tasks for the milkchain service",
	SilenceUsage: true,
}

// Execute runs the command named on the command line.
func Execute(build string) {
	rootCmd.Version = build
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func getPrivateKeyPath() string {
	name := accountName
	if !strings.HasSuffix(name, keystore.Extension) {
		name += keystore.Extension
	}

	return filepath.Join(accountPath, name)
}

// openDB connects to the store and confirms it can be reached so the
// commands fail fast with a clear message.
func openDB(ctx context.Context) (*database.DB, error) {
	db, err := database.Open(database.Config{
		URI:                    dbURI,
		Name:                   dbName,
		ConnectTimeout:         dbTimeout,
		ServerSelectionTimeout: dbTimeout,
	})
	if err != nil {
		return nil, err
	}

	if err := db.StatusCheck(ctx); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("checking store %s: %w", dbName, err)
	}

	return db, nil
}
