package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ogulcanaydogan/SafetyRing/internal/app"
	"github.com/ogulcanaydogan/SafetyRing/internal/config"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	cfgFile string
	apiAddr string
)

var rootCmd = &cobra.Command{
	Use:   "srg",
	Short: "SafetyRing - personal safety alerts from a wearable ring",
	Long: `SafetyRing arms a countdown when the ring is pressed, then sends a distress
message with your location to your contacts. Alerts that cannot be sent are
queued and replayed when connectivity returns.

Commands that change the alert state (trigger, cancel, status, pending drain)
talk to a running daemon. The other commands read and edit the local database;
restart the daemon to pick up edits.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.safetyring/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiAddr, "addr", "http://localhost:8080", "address of the running daemon")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// openStores loads the configuration and opens the local database.
func openStores(ctx context.Context) (*app.Stores, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, _ := config.NewLogger(config.LoggingConfig{Level: cfg.Logging.Level, Format: "text"})
	return app.Open(ctx, cfg, quiet(logger))
}

// quiet keeps store chatter off the terminal unless debugging.
func quiet(logger *slog.Logger) *slog.Logger {
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		return logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var apiClient = &http.Client{Timeout: 10 * time.Second}

// callAPI sends a request to the daemon and decodes a JSON response into
// out. Non-2xx statuses other than 409 are errors.
func callAPI(ctx context.Context, method, path string, out any) (int, error) {
	url := strings.TrimRight(apiAddr, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := apiClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("reach daemon at %s: %w", apiAddr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusConflict {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("daemon returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
