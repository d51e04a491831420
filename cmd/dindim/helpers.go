package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/pcarvalho/dindim/internal/config"
	"github.com/pcarvalho/dindim/internal/model"
	"github.com/pcarvalho/dindim/internal/storage"
)

// initStorage opens the configured database and brings the schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/dindim/dindim.db"
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// resolveFileType honors an explicit --type flag, falling back to the
// filename extension.
func resolveFileType(explicit, filename string) (model.FileType, error) {
	if explicit == "" {
		return model.FileTypeFromName(filename)
	}
	switch ft := model.FileType(strings.ToLower(explicit)); ft {
	case model.FileTypeCSV, model.FileTypeXLSX, model.FileTypePDF, model.FileTypeOFX:
		return ft, nil
	default:
		return "", fmt.Errorf("unsupported file type %q", explicit)
	}
}

// truncate shortens a string for table display without splitting a rune.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func formatAmount(txn model.CanonicalTransaction) string {
	if txn.Kind == model.KindExpense {
		return "-" + txn.Amount.StringFixed(2)
	}
	return "+" + txn.Amount.StringFixed(2)
}
