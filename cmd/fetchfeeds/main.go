package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// fetchfeeds triggers a single ingestion run over HTTP. It is meant to be
// called from cron or by hand during development.

type fetchResult struct {
	Success   bool   `json:"success"`
	Feeds     int    `json:"feeds"`
	Processed int    `json:"processed"`
	Errors    int    `json:"errors"`
	Error     string `json:"error"`
	Message   string `json:"message"`
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}

	apiKey := os.Getenv("FEED_FETCH_API_KEY")
	if apiKey == "" {
		logger.Error("FEED_FETCH_API_KEY is not set")
		os.Exit(1)
	}

	req, err := http.NewRequest(http.MethodPost, apiURL+"/api/feeds/fetch", nil)
	if err != nil {
		logger.Error("failed to build request", "error", err)
		os.Exit(1)
	}
	req.Header.Set("X-API-Key", apiKey)

	client := &http.Client{Timeout: 15 * time.Minute}

	logger.Info("triggering feed fetch", "url", apiURL)
	start := time.Now()

	resp, err := client.Do(req)
	if err != nil {
		logger.Error("request failed", "error", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var result fetchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		logger.Error("failed to decode response", "status", resp.StatusCode, "error", err)
		os.Exit(1)
	}

	if resp.StatusCode != http.StatusOK {
		logger.Error("feed fetch failed",
			"status", resp.StatusCode,
			"error", result.Error,
			"message", result.Message,
		)
		os.Exit(1)
	}

	fmt.Printf("fetched %d feeds: %d new articles, %d errors in %s\n",
		result.Feeds, result.Processed, result.Errors, time.Since(start).Round(time.Millisecond))

	if result.Errors > 0 {
		os.Exit(1)
	}
}
