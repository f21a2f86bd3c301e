package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ebraholidays/voyager/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage voyager configuration",
		Long:  "Initialize a default configuration file or display the current effective configuration.",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

// ---------- config init ----------

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default voyager.yaml configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config file")

	return cmd
}

const defaultConfigFile = `# Voyager Configuration

server:
  host: 0.0.0.0
  port: 5000
  shutdown_timeout: 30s
  cors:
    origins:
      - "*"

auth:
  # Required in production. May reference the environment: ${VOYAGER_JWT_SECRET}
  jwt_secret: ""
  token_ttl: 24h

storage:
  data_dir: data
  upload_dir: uploads

logging:
  level: info
  format: text
`

func runConfigInit(force bool) error {
	const path = "voyager.yaml"

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := os.WriteFile(path, []byte(defaultConfigFile), 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}

// ---------- config show ----------

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow()
		},
	}
	return cmd
}

func runConfigShow() error {
	cfg := config.Default()
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("voyager.yaml"); err == nil {
			path = "voyager.yaml"
		}
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
		fmt.Printf("# from %s\n", path)
	} else {
		fmt.Println("# built-in defaults (no config file found)")
	}

	// Never print the secret itself.
	if cfg.Auth.JWTSecret != "" {
		cfg.Auth.JWTSecret = "(set)"
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Print(string(out))
	return nil
}
