// Command smoke probes a running timetable API deployment against a list of
// endpoint targets and reports which ones respond as expected. It is meant to
// run after a deploy or migration, before traffic is switched over.
//
// Usage:
//
//	go run ./scripts/smoke -base http://localhost:8080 -targets scripts/smoke/targets.json -token "$JWT"
//
// The process exits with code 1 when any target marked critical fails.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

type target struct {
	Name     string `json:"name"`
	Method   string `json:"method"`
	Path     string `json:"path"`
	Body     string `json:"body,omitempty"`
	Expect   int    `json:"expect"`
	Critical bool   `json:"critical"`
	// Auth marks targets behind the JWT middleware. They are skipped when
	// no token is supplied instead of reported as failures.
	Auth bool `json:"auth,omitempty"`
}

type result struct {
	target   target
	status   int
	err      error
	duration time.Duration
	skipped  bool
}

func (r result) ok() bool {
	return r.skipped || (r.err == nil && r.status == r.target.Expect)
}

func main() {
	baseURL := flag.String("base", "http://localhost:8080", "base URL of the deployment under test")
	targetsPath := flag.String("targets", "scripts/smoke/targets.json", "path to the JSON target list")
	token := flag.String("token", "", "bearer token for authenticated targets (optional)")
	timeout := flag.Duration("timeout", 10*time.Second, "per-request timeout")
	flag.Parse()

	targets, err := loadTargets(*targetsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "smoke: %v\n", err)
		os.Exit(2)
	}

	client := &http.Client{Timeout: *timeout}
	results := make([]result, 0, len(targets))
	for _, tg := range targets {
		results = append(results, probe(client, strings.TrimRight(*baseURL, "/"), *token, tg))
	}

	failedCritical := printReport(results)
	if failedCritical > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}
	var targets []target
	if err := json.Unmarshal(raw, &targets); err != nil {
		return nil, fmt.Errorf("parse targets: %w", err)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("target list %s is empty", path)
	}
	for i := range targets {
		if targets[i].Method == "" {
			targets[i].Method = http.MethodGet
		}
		if targets[i].Expect == 0 {
			targets[i].Expect = http.StatusOK
		}
		if targets[i].Name == "" {
			targets[i].Name = targets[i].Method + " " + targets[i].Path
		}
	}
	return targets, nil
}

func probe(client *http.Client, base, token string, tg target) result {
	if tg.Auth && token == "" {
		return result{target: tg, skipped: true}
	}

	var body io.Reader
	if tg.Body != "" {
		body = strings.NewReader(tg.Body)
	}
	req, err := http.NewRequest(tg.Method, base+tg.Path, body)
	if err != nil {
		return result{target: tg, err: err}
	}
	if tg.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if tg.Auth {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return result{target: tg, err: err, duration: elapsed}
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused across targets.
	_, _ = io.Copy(io.Discard, resp.Body)

	return result{target: tg, status: resp.StatusCode, duration: elapsed}
}

func printReport(results []result) int {
	var passed, failed, skipped, failedCritical int
	for _, r := range results {
		switch {
		case r.skipped:
			skipped++
			fmt.Printf("SKIP  %-40s (needs -token)\n", r.target.Name)
		case r.ok():
			passed++
			fmt.Printf("PASS  %-40s %d in %s\n", r.target.Name, r.status, r.duration.Round(time.Millisecond))
		default:
			failed++
			if r.target.Critical {
				failedCritical++
			}
			label := "FAIL"
			if r.target.Critical {
				label = "CRIT"
			}
			if r.err != nil {
				fmt.Printf("%s  %-40s %v\n", label, r.target.Name, r.err)
			} else {
				fmt.Printf("%s  %-40s got %d, want %d\n", label, r.target.Name, r.status, r.target.Expect)
			}
		}
	}

	fmt.Printf("\n%d passed, %d failed (%d critical), %d skipped\n", passed, failed, failedCritical, skipped)
	return failedCritical
}
