package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"spendlog/internal/core"
)

// DefaultDataDir returns ~/.spendlog, or ./.spendlog when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".spendlog"
	}
	return filepath.Join(home, ".spendlog")
}

// TenantDBPath maps a tenant id to its database file inside dir.
// Negative ids are valid (group chats) and keep their sign in the file name.
func TenantDBPath(dir string, tenantID int64) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("%w: empty data directory", core.ErrInvalidTenant)
	}
	base, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve data directory: %w", err)
	}
	path := filepath.Join(base, strconv.FormatInt(tenantID, 10)+".db")
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || strings.ContainsRune(rel, filepath.Separator) {
		return "", fmt.Errorf("%w: %d", core.ErrInvalidTenant, tenantID)
	}
	return path, nil
}
