// Package main is the entry point for the commodity options pipeline.
//
// It screens the futures universe for movers and suggests option strategies
// (discover), scores held option positions (review), and can expose both over
// HTTP (serve) or run discovery on a cron schedule (schedule).
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
