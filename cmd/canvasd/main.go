// canvasd is the canvas-print storefront backend: product catalog reads
// against the commerce platform, per-session configuration state, the
// optimistic cart overlay, preview geometry, upload orchestration, and the
// image cleanup webhook receiver.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/terandy/canvas-print-shop-sub000/internal/api"
	"github.com/terandy/canvas-print-shop-sub000/internal/blob"
	"github.com/terandy/canvas-print-shop-sub000/internal/commerce"
	"github.com/terandy/canvas-print-shop-sub000/internal/config"
	"github.com/terandy/canvas-print-shop-sub000/internal/httpkit"
	"github.com/terandy/canvas-print-shop-sub000/internal/session"
)

func main() {
	var (
		port       = flag.Int("port", 0, "HTTP listen port (default: auto from PORT env or 8080)")
		configPath = flag.String("config", "config.yaml", "Path to the YAML config file")
		verbose    = flag.Bool("verbose", false, "Enable request/response logging")
	)
	flag.Parse()

	if *port == 0 {
		if p := os.Getenv("PORT"); p != "" {
			fmt.Sscanf(p, "%d", port)
		}
	}
	if *port == 0 {
		*port = 8080
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	srv := httpkit.New(&httpkit.Options{
		Port:    *port,
		Verbose: *verbose,
		Name:    "canvasd",
	})

	ctx := context.Background()

	persist := session.OpenPersister(ctx, cfg.Session.DatabaseURL, srv.Logger)
	sessions := session.NewManager(persist, srv.Logger)

	var blobs blob.Store
	switch cfg.Storage.Mode {
	case "s3":
		s3Store, err := blob.NewS3Store(ctx, blob.S3Config{
			Bucket:        cfg.Storage.Bucket,
			Region:        cfg.Storage.Region,
			Endpoint:      cfg.Storage.Endpoint,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
			PresignTTL:    cfg.Storage.PresignTTL,
		}, srv.Logger)
		if err != nil {
			log.Fatalf("initializing s3 store: %v", err)
		}
		blobs = s3Store
	default:
		secret := cfg.Storage.TokenSecret
		if secret == "" {
			secret = "local-dev-upload-secret"
		}
		base := cfg.Storage.PublicBaseURL
		if base == "" {
			base = fmt.Sprintf("http://localhost:%d", *port)
		}
		local := blob.NewLocalStore(base, secret, srv.Logger)
		local.Routes(srv.Router)
		blobs = local
	}

	platform := commerce.NewClient(cfg.Commerce.Endpoint, cfg.Commerce.Token, srv.Logger)

	handler := api.NewHandler(cfg, sessions, platform, blobs, srv.ReqLog, srv.Logger)
	handler.Routes(srv.Router)

	srv.Logger.Info("canvasd ready",
		"port", *port,
		"storage_mode", cfg.Storage.Mode,
		"commerce_endpoint", cfg.Commerce.Endpoint,
		"product", cfg.Product,
	)

	if err := srv.Serve(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
