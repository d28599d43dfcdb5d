package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/browser"

	"github.com/ytgrab/ytgrab/internal/core/config"
	"github.com/ytgrab/ytgrab/internal/core/extractor"
	"github.com/ytgrab/ytgrab/internal/core/userstore"
	"github.com/ytgrab/ytgrab/internal/server"
)

func main() {
	var (
		configPath = flag.String("config", config.DefaultPath, "path to the config file")
		addr       = flag.String("addr", "", "listen address, overrides config host:port")
		dir        = flag.String("dir", "", "download directory, overrides config")
		users      = flag.String("users", "", "users file, overrides config")
		staticDir  = flag.String("static", "static", "directory holding the landing page")
		noBrowser  = flag.Bool("no-browser", false, "do not open the landing page in a browser")
	)
	flag.Parse()

	cfg := config.LoadOrDefault(*configPath)
	listen := cfg.Addr()
	if *addr != "" {
		listen = *addr
	}
	if *dir != "" {
		cfg.DownloadDir = *dir
	}
	if *users != "" {
		cfg.UsersFile = *users
	}
	if *noBrowser {
		cfg.OpenBrowser = false
	}

	store, err := userstore.Open(cfg.UsersFile)
	if err != nil {
		log.Fatalf("failed to open user store: %v", err)
	}

	srv := server.New(listen, cfg.DownloadDir, *staticDir, store, extractor.New(cfg.YtdlpPath))

	maxAge, err := cfg.Retention.MaxAgeDuration()
	if err != nil {
		log.Fatal(err)
	}
	if maxAge > 0 {
		sw := server.NewSweeper(cfg.DownloadDir, maxAge, cfg.Retention.SweepIntervalDuration())
		sw.Start()
		defer sw.Stop()
	}

	if cfg.OpenBrowser {
		url := fmt.Sprintf("http://%s", listen)
		time.AfterFunc(time.Second, func() {
			if err := browser.OpenURL(url); err != nil {
				log.Printf("failed to open browser: %v", err)
			}
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
