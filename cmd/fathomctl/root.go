package main

import (
	"os"

	"github.com/spf13/cobra"
)

var engineAddr string

var rootCmd = &cobra.Command{
	Use:   "fathomctl",
	Short: "Client for the Fathom report engine",
	Long:  `fathomctl talks to a running Fathom engine over its admin HTTP API.`,
}

func init() {
	defaultAddr := os.Getenv("FATHOM_ADDR")
	if defaultAddr == "" {
		defaultAddr = "http://localhost:8081"
	}
	rootCmd.PersistentFlags().StringVar(&engineAddr, "addr", defaultAddr, "engine admin HTTP address")
}
