package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"cdfinder/internal/catalog/source"
	"cdfinder/internal/config"
	"cdfinder/internal/identification"
	"cdfinder/internal/session"
)

const catalogProbeTimeout = 10 * time.Second

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

// CheckCatalog fetches a single row to prove the store answers.
func CheckCatalog(ctx context.Context, store source.Store) Result {
	const name = "Catalog"
	if store == nil {
		return Result{Name: name, Detail: "no catalog store"}
	}
	if !store.Configured() {
		return Result{Name: name, Detail: fmt.Sprintf("%s backend not configured", store.Name())}
	}
	checkCtx, cancel := context.WithTimeout(ctx, catalogProbeTimeout)
	defer cancel()
	page, err := store.FetchPage(checkCtx, 0, 1)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{Name: name, Detail: fmt.Sprintf("%s backend timed out", store.Name())}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s backend failed: %v", store.Name(), err)}
	}
	if len(page) == 0 {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable (table empty)", store.Name())}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable", store.Name())}
}

// CheckAI reports whether AI features will be enabled. No request is sent.
func CheckAI(cfg *config.Config) Result {
	const name = "AI"
	if strings.TrimSpace(cfg.AICredential()) == "" {
		return Result{Name: name, Skipped: true, Detail: "no api key; image identification and AI search disabled"}
	}
	if !session.AIAvailable(cfg.AICredential()) {
		return Result{Name: name, Detail: "api key rejected (too short or placeholder)"}
	}
	if _, err := identification.NewCompleter(cfg); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s %s", cfg.AI.Provider, cfg.AI.Model)}
}

// CheckCaptureCommand verifies the camera program is on PATH.
func CheckCaptureCommand(command []string) Result {
	const name = "Camera"
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return Result{Name: name, Skipped: true, Detail: "no capture command configured"}
	}
	path, err := exec.LookPath(command[0])
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("binary %q not found", command[0])}
	}
	return Result{Name: name, Passed: true, Detail: path}
}
