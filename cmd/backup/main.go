// Command backup writes every collection to a directory as JSON files, the
// same documents an administrator downloads from the backup page.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lab-checkout/internal/config"
	"lab-checkout/internal/infrastructure/database"
	"lab-checkout/internal/logger"
	"lab-checkout/internal/usecase/backup"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	outDir := pflag.StringP("out", "o", ".", "directory to write the collection files to")
	compress := pflag.BoolP("gzip", "z", false, "gzip each file (adds .gz)")
	only := pflag.StringSliceP("collection", "c", nil, "collections to write (default all)")
	timeout := pflag.Duration("timeout", 5*time.Minute, "overall time limit")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Server.Environment); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, *outDir, *compress, *only, *timeout); err != nil {
		logger.Error("Backup failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, outDir string, compress bool, only []string, timeout time.Duration) error {
	repos, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer repos.Close()

	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("failed to create %s: %w", outDir, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	svc := backup.NewService(repos.Devices, repos.Logins, repos.History, repos.Users)
	names := only
	if len(names) == 0 {
		names = backup.Names()
	}

	for _, name := range names {
		data, err := svc.Dump(ctx, name)
		if err != nil {
			return err
		}
		path, err := writeFile(outDir, name, data, compress)
		if err != nil {
			return err
		}
		logger.Info("Collection written",
			zap.String("collection", name),
			zap.String("path", path),
			zap.Int("bytes", len(data)),
		)
	}
	return nil
}

func writeFile(dir, name string, data []byte, compress bool) (string, error) {
	path := filepath.Join(dir, name+".json")
	if !compress {
		return path, os.WriteFile(path, data, 0o600)
	}

	path += ".gz"
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	zw.Name = name + ".json"
	if _, err := zw.Write(data); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, f.Sync()
}
