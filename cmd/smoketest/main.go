// Command smoketest exercises a running fleet safety service end to end:
// health, dataset load, aggregation, risk ranking, diagnostics and report
// generation, verifying the invariants each surface promises.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"
)

const defaultTimeout = 30 * time.Second

type client struct {
	base string
	http *http.Client
}

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:8080", "Base URL of the service")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
	)
	flag.Parse()

	c := &client{base: *baseURL, http: &http.Client{Timeout: *timeout}}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	checks := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"healthz", c.checkHealth},
		{"dataset", c.checkDataset},
		{"summary", c.checkSummary},
		{"risk", c.checkRisk},
		{"diagnostics", c.checkDiagnostics},
		{"report", c.checkReport},
	}

	failed := 0
	for _, check := range checks {
		if err := check.fn(ctx); err != nil {
			fmt.Printf("FAIL  %-12s %v\n", check.name, err)
			failed++
			continue
		}
		fmt.Printf("ok    %s\n", check.name)
	}
	if failed > 0 {
		fmt.Printf("%d of %d checks failed\n", failed, len(checks))
		os.Exit(1)
	}
	fmt.Printf("all %d checks passed\n", len(checks))
}

func (c *client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *client) checkHealth(ctx context.Context) error {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.getJSON(ctx, "/healthz", &body); err != nil {
		return err
	}
	if body.Status != "ok" {
		return fmt.Errorf("unexpected status %q", body.Status)
	}
	return nil
}

func (c *client) checkDataset(ctx context.Context) error {
	var meta struct {
		Signature string `json:"signature"`
		Events    int    `json:"events"`
		Degraded  bool   `json:"degraded"`
	}
	if err := c.getJSON(ctx, "/dataset", &meta); err != nil {
		return err
	}
	if meta.Signature == "" {
		return fmt.Errorf("empty dataset signature")
	}
	if meta.Events == 0 {
		return fmt.Errorf("dataset has no events")
	}
	if meta.Degraded {
		fmt.Println("      note: serving degraded sample data")
	}
	return nil
}

func (c *client) checkSummary(ctx context.Context) error {
	var meta struct {
		Events int `json:"events"`
	}
	if err := c.getJSON(ctx, "/dataset", &meta); err != nil {
		return err
	}
	var sum struct {
		Total   int `json:"total"`
		Buckets []struct {
			Count int     `json:"count"`
			Share float64 `json:"share"`
		} `json:"buckets"`
	}
	if err := c.getJSON(ctx, "/summary?by=event_type", &sum); err != nil {
		return err
	}
	if sum.Total != meta.Events {
		return fmt.Errorf("summary total %d != dataset events %d", sum.Total, meta.Events)
	}
	counted := 0
	for _, b := range sum.Buckets {
		counted += b.Count
	}
	if counted != sum.Total {
		return fmt.Errorf("bucket counts sum to %d, want %d", counted, sum.Total)
	}
	return nil
}

func (c *client) checkRisk(ctx context.Context) error {
	var ranked []struct {
		EntityID  string  `json:"entity_id"`
		Composite float64 `json:"composite"`
	}
	if err := c.getJSON(ctx, "/risk", &ranked); err != nil {
		return err
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Composite > ranked[i-1].Composite {
			return fmt.Errorf("ranking not descending at position %d", i)
		}
	}
	return nil
}

func (c *client) checkDiagnostics(ctx context.Context) error {
	var results []struct {
		Kind      string `json:"kind"`
		Reachable bool   `json:"reachable"`
	}
	if err := c.getJSON(ctx, "/diagnostics", &results); err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("no sources configured")
	}
	return nil
}

func (c *client) checkReport(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{"scope": "fleet"})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/report", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("POST /report: status %d", resp.StatusCode)
	}
	var artifact struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&artifact); err != nil {
		return err
	}
	if artifact.Path == "" {
		return fmt.Errorf("empty artifact path")
	}
	return nil
}
