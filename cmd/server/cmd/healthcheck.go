package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	healthcheckCmd = &cobra.Command{
		Use:   "healthcheck",
		Short: "Probe a running server's /health endpoint",
		Long: `Probes the /health endpoint of a running server, intended as a
container HEALTHCHECK command.

Exit codes:
  0 - server reports healthy
  1 - server is unhealthy or unreachable
  2 - server answered with something that is not a health report`,
		RunE: runHealthcheck,
	}

	healthcheckTimeout int
	healthcheckURL     string
)

func init() {
	healthcheckCmd.Flags().IntVar(&healthcheckTimeout, "timeout", 5, "probe timeout in seconds")
	healthcheckCmd.Flags().StringVar(&healthcheckURL, "url", "", "health URL (default: http://localhost:{SERVER_PORT}/health)")
}

// healthReport is the subset of the /health payload the probe cares about.
type healthReport struct {
	Status string `json:"status"`
}

func runHealthcheck(cmd *cobra.Command, _ []string) error {
	url := healthcheckURL
	if url == "" {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		url = fmt.Sprintf("http://localhost:%s/health", port)
	}

	client := &http.Client{Timeout: time.Duration(healthcheckTimeout) * time.Second}

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
	if err != nil {
		return probeFailure(1, fmt.Errorf("build probe request: %w", err))
	}

	resp, err := client.Do(req)
	if err != nil {
		return probeFailure(1, fmt.Errorf("probe %s: %w", url, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return probeFailure(1, fmt.Errorf("probe %s: status %d", url, resp.StatusCode))
	}

	var report healthReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return probeFailure(2, fmt.Errorf("decode health report: %w", err))
	}
	if report.Status != "healthy" {
		return probeFailure(1, fmt.Errorf("server reports %q", report.Status))
	}
	return nil
}

func probeFailure(code int, err error) error {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(code)
	return err
}
