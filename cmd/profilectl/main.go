// Package main implements profilectl, a small client for the profile sync
// API. It can fetch a profile or apply a batch of updates from a JSON file.
//
// Usage:
//
//	profilectl -addr http://localhost:8080 -key K -membership 123 get
//	profilectl -addr http://localhost:8080 -key K -membership 123 apply updates.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/avolkov/profilekeeper/internal/client"
	"github.com/avolkov/profilekeeper/internal/models"
)

func main() {
	addr := flag.String("addr", "http://localhost:8080", "server base URL")
	key := flag.String("key", "", "API key")
	membership := flag.String("membership", "", "platform membership id")
	version := flag.Int("version", 2, "destiny version")
	components := flag.String("components", "", "comma-separated components for get")
	flag.Parse()

	if *membership == "" || flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: profilectl -membership ID [flags] get|apply <file>")
		os.Exit(2)
	}

	c := client.New(*addr, *key, 30*time.Second)
	profileKey := models.ProfileKey{
		PlatformMembershipID: *membership,
		DestinyVersion:       models.DestinyVersion(*version),
	}
	ctx := context.Background()

	var err error
	switch flag.Arg(0) {
	case "get":
		err = getProfile(ctx, c, profileKey, *components)
	case "apply":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "apply requires an updates file")
			os.Exit(2)
		}
		err = applyUpdates(ctx, c, profileKey, flag.Arg(1))
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", flag.Arg(0))
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func getProfile(ctx context.Context, c *client.Client, key models.ProfileKey, components string) error {
	var list []string
	if components != "" {
		list = strings.Split(components, ",")
	}

	resp, err := c.GetProfile(ctx, key, list)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func applyUpdates(ctx context.Context, c *client.Client, key models.ProfileKey, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var updates []models.ProfileUpdate
	if err := json.Unmarshal(data, &updates); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	results, err := c.ApplyUpdates(ctx, key, updates)
	if err != nil {
		return err
	}
	for _, line := range formatResults(updates, results) {
		fmt.Println(line)
	}
	if len(results) != len(updates) {
		return fmt.Errorf("server returned %d results for %d updates", len(results), len(updates))
	}
	return nil
}

// formatResults renders one line per result. It never indexes past either
// list, so a server responding with the wrong number of results still gets
// its results printed before the mismatch is reported.
func formatResults(updates []models.ProfileUpdate, results []models.UpdateResult) []string {
	lines := make([]string, 0, len(results))
	for i, res := range results {
		action := "?"
		if i < len(updates) {
			action = string(updates[i].Action)
		}
		line := fmt.Sprintf("%2d %-13s %s", i, action, res.Status)
		if res.Message != "" {
			line += ": " + res.Message
		}
		lines = append(lines, line)
	}
	return lines
}
