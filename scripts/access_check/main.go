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
	"path/filepath"
	"strings"
	"time"
)

// target is one probe: the request is sent with the token of As and must
// answer Expect.
type target struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	As       string `json:"as"`
	Expect   int    `json:"expect"`
	Critical bool   `json:"critical"`
}

type config struct {
	Targets []target `json:"targets"`
}

type result struct {
	Target   target
	Status   int
	Error    error
	Duration time.Duration
}

func (r result) ok() bool {
	return r.Error == nil && r.Status == r.Target.Expect
}

func main() {
	var (
		base        string
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "SymboHub base URL")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "access_check", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	// "anonymous" probes send no Authorization header.
	tokens := map[string]string{
		"admin":      os.Getenv("SYMBOHUB_TOKEN_ADMIN"),
		"college":    os.Getenv("SYMBOHUB_TOKEN_COLLEGE"),
		"department": os.Getenv("SYMBOHUB_TOKEN_DEPARTMENT"),
	}

	client := &http.Client{Timeout: timeout}
	var (
		results  []result
		breaking int
		optional int
	)
	for _, t := range targets {
		res := probe(client, base, tokens, t)
		if !res.ok() {
			if t.Critical {
				breaking++
			} else {
				optional++
			}
		}
		results = append(results, res)
	}

	printReport(results)

	fmt.Printf("Breaking mismatches: %d, Optional mismatches: %d\n", breaking, optional)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

func probe(client *http.Client, base string, tokens map[string]string, tgt target) result {
	res := result{Target: tgt}
	role := strings.ToLower(strings.TrimSpace(tgt.As))
	var token string
	if role != "" && role != "anonymous" {
		token = tokens[role]
		if token == "" {
			res.Error = fmt.Errorf("no token configured for %q", role)
			return res
		}
	}

	resp, dur, err := performRequest(client, base, token, tgt)
	res.Duration = dur
	if err != nil {
		res.Error = err
		return res
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	res.Status = resp.StatusCode
	return res
}

func performRequest(client *http.Client, base, token string, tgt target) (*http.Response, time.Duration, error) {
	if client == nil {
		return nil, 0, errors.New("nil client")
	}
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := strings.TrimRight(base, "/") + path

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return nil, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	return resp, time.Since(start), nil
}

func printReport(results []result) {
	fmt.Println("Access Check Report")
	fmt.Println("===================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.ok() {
			status = "MISMATCH"
		}
		as := res.Target.As
		if as == "" {
			as = "anonymous"
		}
		fmt.Printf("[%s] %s %s as %s\n", status, res.Target.Method, res.Target.Path, as)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  Status: %d, expected %d (%s) | Critical: %t\n", res.Status, res.Target.Expect, res.Duration, res.Target.Critical)
	}
}
