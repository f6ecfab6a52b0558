package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"
)

// sections are the report lists compared between two fetches.
var sections = []string{
	"revenueOpportunities",
	"retentionRisks",
	"churnForecast",
	"revenueForecast",
	"peakHourForecast",
	"renewalOffers",
}

type envelope struct {
	Data map[string]json.RawMessage `json:"data"`
}

type drift struct {
	Section string
	First   int
	Second  int
	Members []string
}

func main() {
	var (
		base    string
		pause   time.Duration
		timeout time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "API base URL")
	flag.DurationVar(&pause, "pause", time.Second, "Delay between the two fetches")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	client := &http.Client{Timeout: timeout}
	first, err := fetchReport(client, base)
	if err != nil {
		log.Fatalf("first fetch failed: %v", err)
	}
	time.Sleep(pause)
	second, err := fetchReport(client, base)
	if err != nil {
		log.Fatalf("second fetch failed: %v", err)
	}

	drifts, err := compareReports(first, second)
	if err != nil {
		log.Fatalf("compare failed: %v", err)
	}
	printReport(drifts)
	if len(drifts) > 0 {
		os.Exit(1)
	}
}

func fetchReport(client *http.Client, base string) (map[string]json.RawMessage, error) {
	if client == nil {
		return nil, errors.New("nil client")
	}
	url := strings.TrimRight(base, "/") + "/insights"
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return env.Data, nil
}

// compareReports reports sections whose length or member identities differ.
// Occupancy jitter and generated timestamps are expected to vary and are ignored.
func compareReports(first, second map[string]json.RawMessage) ([]drift, error) {
	var drifts []drift
	for _, section := range sections {
		a, err := decodeList(first[section])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", section, err)
		}
		b, err := decodeList(second[section])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", section, err)
		}
		changed := symmetricDifference(memberIDs(a), memberIDs(b))
		if len(a) != len(b) || len(changed) > 0 {
			drifts = append(drifts, drift{Section: section, First: len(a), Second: len(b), Members: changed})
		}
	}
	return drifts, nil
}

func decodeList(raw json.RawMessage) ([]map[string]interface{}, error) {
	if len(raw) == 0 {
		return nil, errors.New("section missing")
	}
	var items []map[string]interface{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func memberIDs(items []map[string]interface{}) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, item := range items {
		if id, ok := item["memberId"].(string); ok {
			ids[id] = struct{}{}
		}
	}
	return ids
}

func symmetricDifference(a, b map[string]struct{}) []string {
	var out []string
	for id := range a {
		if _, ok := b[id]; !ok {
			out = append(out, id)
		}
	}
	for id := range b {
		if _, ok := a[id]; !ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func printReport(drifts []drift) {
	fmt.Println("Insights Consistency Report")
	fmt.Println("===========================")
	if len(drifts) == 0 {
		fmt.Println("[OK] all sections stable")
		return
	}
	for _, d := range drifts {
		fmt.Printf("[DRIFT] %s: %d -> %d\n", d.Section, d.First, d.Second)
		if len(d.Members) > 0 {
			fmt.Printf("  Members: %s\n", strings.Join(d.Members, ", "))
		}
	}
}
