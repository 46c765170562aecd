package preflight

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"fieldsync/internal/config"
	"fieldsync/internal/queue"
)

// CheckBackend verifies that the backend health endpoint answers and the
// configured token is accepted. A single attempt with a short timeout;
// an unreachable backend is a normal condition in the field, not an error.
func CheckBackend(ctx context.Context, cfg *config.Config) Result {
	const name = "Backend"

	base := strings.TrimRight(strings.TrimSpace(cfg.Backend.BaseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing base url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+cfg.Backend.HealthPath, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("health check failed (%v)", err)}
	}
	if token := strings.TrimSpace(cfg.Backend.APIToken); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("unreachable (%v)", err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid api token)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("health check failed (%d)", resp.StatusCode)}
	}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDatabase verifies the upload database is present and intact.
func CheckDatabase(ctx context.Context, store *queue.Store) Result {
	const name = "Upload database"

	if store == nil {
		return Result{Name: name, Detail: "not opened"}
	}

	health, err := store.CheckHealth(ctx)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if !health.DatabaseExists {
		return Result{Name: name, Detail: fmt.Sprintf("%s (missing)", health.DBPath)}
	}
	if !health.DatabaseReadable || !health.TableExists {
		return Result{Name: name, Detail: fmt.Sprintf("%s (not initialized)", health.DBPath)}
	}
	if !health.IntegrityCheck {
		return Result{Name: name, Detail: fmt.Sprintf("%s (integrity check failed)", health.DBPath)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d pending)", health.DBPath, health.TotalItems)}
}
