package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ebraholidays/voyager/internal/config"
	"github.com/ebraholidays/voyager/internal/server"
	"github.com/ebraholidays/voyager/internal/service"
	"github.com/ebraholidays/voyager/internal/store"
	"github.com/ebraholidays/voyager/internal/upload"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the HTTP server that exposes the public site API and the authenticated admin API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(host, port, dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 5000, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging, CORS *)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(host string, port int, dev bool) error {
	cfg := loadConfig()

	// Set up logger
	logLevel := slog.LevelInfo
	if dev || strings.EqualFold(cfg.Logging.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	var logHandler slog.Handler
	if strings.EqualFold(cfg.Logging.Format, "json") {
		logHandler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	} else {
		logHandler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	}
	logger := slog.New(logHandler)

	// 1. Open the store
	st, err := store.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer st.Close()
	logger.Info("store initialized", "path", cfg.Storage.DataDir)

	// 2. Upload manager for blog images
	uploads, err := upload.NewManager(cfg.Storage.UploadDir)
	if err != nil {
		return fmt.Errorf("init upload dir: %w", err)
	}

	// 3. Auth service
	jwtSecret := cfg.Auth.JWTSecret
	if jwtSecret == "" {
		jwtSecret = viper.GetString("auth.jwt_secret")
	}
	if jwtSecret == "" {
		if dev {
			jwtSecret = "voyager-dev-secret-change-me"
			logger.Warn("no JWT secret configured, using the development default")
		} else {
			return fmt.Errorf("auth.jwt_secret must be set (config file or VOYAGER_AUTH_JWT_SECRET)")
		}
	}
	authSvc := service.NewAuthService(st, jwtSecret, cfg.TokenTTL())

	// 4. Check for first-run (no admin exists)
	hasAdmin, err := st.HasAnyAdmin(context.Background())
	if err != nil {
		logger.Warn("failed to check for admin", "error", err)
	}
	if !hasAdmin {
		logger.Warn("no admin account found - POST /api/v1/admin/setup or run: voyager admin create")
	}

	// 5. Build and start HTTP server
	srvCfg := server.Config{
		Host:             host,
		Port:             port,
		ShutdownTimeout:  cfg.ShutdownTimeout(),
		CORSOrigins:      cfg.Server.CORS.Origins,
		UploadDir:        cfg.Storage.UploadDir,
		Version:          appVersion,
		PublicWriteLimit: 20,
	}
	if dev {
		srvCfg.CORSOrigins = []string{"*"}
	}

	srv := server.New(srvCfg, st, authSvc, uploads, logger)

	fmt.Printf("→ Voyager %s\n", appVersion)
	fmt.Printf("→ Listening on http://%s:%d\n", host, port)
	fmt.Printf("→ API:     http://%s:%d/api/v1\n", host, port)
	fmt.Printf("→ Uploads: http://%s:%d/uploads\n", host, port)
	fmt.Printf("→ Health:  http://%s:%d/healthz\n", host, port)
	fmt.Println()

	return srv.ListenAndServe()
}

// loadConfig resolves the effective configuration: the YAML file when one is
// present, defaults otherwise, with the time-based knobs validated lazily.
func loadConfig() *config.Config {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("voyager.yaml"); err == nil {
			path = "voyager.yaml"
		}
	}
	if path != "" {
		if cfg, err := config.Load(path); err == nil {
			return cfg
		}
	}
	cfg := config.Default()
	// Env/flag overrides via viper (VOYAGER_ prefix).
	if v := viper.GetInt("server.port"); v != 0 {
		cfg.Server.Port = v
	}
	if v := viper.GetString("server.host"); v != "" {
		cfg.Server.Host = v
	}
	if v := viper.GetString("storage.data_dir"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := viper.GetString("storage.upload_dir"); v != "" {
		cfg.Storage.UploadDir = v
	}
	return cfg
}
