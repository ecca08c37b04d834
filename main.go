package main

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Bijush/Avoter/pkg/blob"
)

// publicFilesPrefix is the URL prefix attachment blobs are served from.
const publicFilesPrefix = "/files"

func main() {
	// Auto-load ./.env if present (no external dependency) before reading vars
	loadDotEnv()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()
	st, err := openStore(ctx, logger)
	if err != nil {
		logger.Fatal("store initialization failed", zap.Error(err))
	}

	base := uploadBaseDir()
	blobs, err := blob.NewStore(base, publicFilesPrefix)
	if err != nil {
		logger.Fatal("upload base initialization failed", zap.Error(err))
	}

	srv := newServer(st, blobs, logger)
	r := newRouter(srv, base)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	logger.Info("serving records",
		zap.String("addr", addr),
		zap.String("store", st.Name()),
		zap.String("uploads", base))
	if err := r.Run(addr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

// loadDotEnv loads key=value pairs from a local .env file into the environment
// without overwriting variables that are already set. Lines starting with # are ignored.
func loadDotEnv() {
	path := ".env"
	if _, err := os.Stat(path); err != nil {
		return // no .env file
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// split on first '='
		if eq := strings.IndexByte(line, '='); eq > 0 {
			key := strings.TrimSpace(line[:eq])
			val := strings.TrimSpace(line[eq+1:])
			if _, exists := os.LookupEnv(key); !exists {
				_ = os.Setenv(key, val)
			}
		}
	}
}
