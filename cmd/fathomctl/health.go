package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show engine dependency health",
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	httpClient := &http.Client{Timeout: 10 * time.Second}
	resp, err := httpClient.Get(engineAddr + "/health")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var status struct {
		Healthy bool `json:"healthy"`
		Checks  []struct {
			Name    string `json:"name"`
			Healthy bool   `json:"healthy"`
			Error   string `json:"error,omitempty"`
			Latency string `json:"latency"`
		} `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("decoding health response: %w", err)
	}

	for _, c := range status.Checks {
		mark := "ok"
		if !c.Healthy {
			mark = "FAIL"
		}
		fmt.Printf("%-16s %-5s %s %s\n", c.Name, mark, c.Latency, c.Error)
	}
	if !status.Healthy {
		return fmt.Errorf("engine unhealthy")
	}
	return nil
}
