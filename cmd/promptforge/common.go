package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/promptforge/promptforge/internal/history"
)

func openDB() (*sql.DB, func(), error) {
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return nil, func() {}, fmt.Errorf("create project dir: %w", err)
	}
	dbPath := filepath.Join(projectDir, "history.db")
	db, err := history.Open(dbPath)
	if err != nil {
		return nil, func() {}, err
	}
	return db, func() { _ = db.Close() }, nil
}

func newRunID() string {
	return fmt.Sprintf("r-%s-%s",
		time.Now().UTC().Format("20060102-150405"),
		strings.Split(uuid.NewString(), "-")[0])
}
