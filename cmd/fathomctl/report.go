package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	reportJSON    bool
	reportTimeout time.Duration
)

var reportCmd = &cobra.Command{
	Use:   "report [query]",
	Short: "Run a deep-research report",
	Long: `Submit a research query to the engine and wait for the finished report.
Runs are synchronous; deep reports can take several minutes.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print the full run result as JSON")
	reportCmd.Flags().DurationVar(&reportTimeout, "timeout", 15*time.Minute, "client-side wait limit")
	rootCmd.AddCommand(reportCmd)
}

type runError struct {
	Node    string `json:"node"`
	ItemID  string `json:"item_id,omitempty"`
	Message string `json:"message"`
}

type reportResult struct {
	Success bool       `json:"success"`
	Report  string     `json:"report"`
	Errors  []runError `json:"errors,omitempty"`
}

func runReport(cmd *cobra.Command, args []string) error {
	body, err := json.Marshal(map[string]string{"query": strings.Join(args, " ")})
	if err != nil {
		return err
	}

	httpClient := &http.Client{Timeout: reportTimeout}
	resp, err := httpClient.Post(engineAddr+"/api/v1/reports", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadGateway {
		return fmt.Errorf("engine returned %s: %s", resp.Status, string(raw))
	}

	if reportJSON {
		fmt.Println(string(raw))
		return nil
	}

	var result reportResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("decoding result: %w", err)
	}
	if !result.Success {
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "error [%s] %s\n", e.Node, e.Message)
		}
		return fmt.Errorf("run failed")
	}

	fmt.Println(result.Report)
	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "warning [%s] %s: %s\n", e.Node, e.ItemID, e.Message)
	}
	return nil
}
