package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

// MigrationFile describes a freshly created up/down pair.
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// CreateMigration writes an empty up/down migration pair. The version
// prefix is the current timestamp so lexical order matches creation
// order.
func CreateMigration(migrationsDir, name, description string) (*MigrationFile, error) {
	if err := os.MkdirAll(migrationsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	now := time.Now()
	mf := &MigrationFile{
		Version:     now.Format("20060102150405"),
		Name:        name,
		Description: description,
		Timestamp:   now.Format(time.RFC3339),
	}

	base := mf.Version + "_" + sanitizeName(name)
	mf.UpPath = filepath.Join(migrationsDir, base+upSuffix)
	mf.DownPath = filepath.Join(migrationsDir, base+downSuffix)

	if err := os.WriteFile(mf.UpPath, []byte(mf.header(false)), 0o644); err != nil {
		return nil, fmt.Errorf("failed to create up migration: %w", err)
	}
	if err := os.WriteFile(mf.DownPath, []byte(mf.header(true)), 0o644); err != nil {
		// Never leave a half pair behind.
		_ = os.Remove(mf.UpPath)
		return nil, fmt.Errorf("failed to create down migration: %w", err)
	}

	return mf, nil
}

func (mf *MigrationFile) header(rollback bool) string {
	var b strings.Builder
	if rollback {
		fmt.Fprintf(&b, "-- Migration: %s (Rollback)\n", mf.Name)
		fmt.Fprintf(&b, "-- Created: %s\n", mf.Timestamp)
		fmt.Fprintf(&b, "-- Description: Rollback for %s\n\n", mf.Description)
		b.WriteString("-- Write your DOWN migration SQL here\n\n")
	} else {
		fmt.Fprintf(&b, "-- Migration: %s\n", mf.Name)
		fmt.Fprintf(&b, "-- Created: %s\n", mf.Timestamp)
		fmt.Fprintf(&b, "-- Description: %s\n\n", mf.Description)
		b.WriteString("-- Write your UP migration SQL here\n\n")
	}
	return b.String()
}

// sanitizeName lowercases the name and collapses separators to single
// underscores, dropping anything else.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			s := b.String()
			if len(s) > 0 && !strings.HasSuffix(s, "_") {
				b.WriteByte('_')
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// ListMigrations returns the distinct base names of every up
// migration in the directory. A missing directory lists as empty.
func ListMigrations(migrationsDir string) ([]string, error) {
	entries, err := os.ReadDir(migrationsDir)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	migrations := make([]string, 0, len(entries))
	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), upSuffix) {
			continue
		}
		base := strings.TrimSuffix(entry.Name(), upSuffix)
		if !seen[base] {
			seen[base] = true
			migrations = append(migrations, base)
		}
	}
	return migrations, nil
}
