package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"tokenwheel.ai/internal/protocol"
)

func adminURL(base, path string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/") + path
}

func metricsCmd(args []string) {
	fs := flag.NewFlagSet("metrics", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)

	doRequest(http.MethodGet, adminURL(*baseURL, "/admin/v1/metrics"), nil)
}

// getCmd forwards the remaining flags as query parameters.
func getCmd(name, path string, args []string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	limit := fs.Int("limit", 0, "row limit (kills)")
	from := fs.Uint64("from", 0, "first tick (economy)")
	to := fs.Uint64("to", 0, "last tick, exclusive (economy)")
	step := fs.Int("step", 0, "tick step (economy)")
	_ = fs.Parse(args)

	q := url.Values{}
	if *limit > 0 {
		q.Set("limit", fmt.Sprint(*limit))
	}
	if *from > 0 {
		q.Set("from", fmt.Sprint(*from))
	}
	if *to > 0 {
		q.Set("to", fmt.Sprint(*to))
	}
	if *step > 0 {
		q.Set("step", fmt.Sprint(*step))
	}
	u := adminURL(*baseURL, path)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	doRequest(http.MethodGet, u, nil)
}

func debugCmd(args []string) {
	fs := flag.NewFlagSet("debug", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	kind := fs.String("kind", "", "Debug* action kind (required)")
	amount := fs.Int64("amount", 0, "token amount (DebugSetTokens, DebugAddTokens)")
	phase := fs.String("phase", "", "phase (DebugSetPhase)")
	tier := fs.String("tier", "", "crank tier (DebugSetCrankTier)")
	rogue := fs.String("rogue", "", "rogue type (DebugSpawnRogue)")
	_ = fs.Parse(args)

	act, err := debugAction(*kind, *amount, *phase, *tier, *rogue)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	b, _ := json.Marshal(act)
	doRequest(http.MethodPost, adminURL(*baseURL, "/admin/v1/debug"), b)
}

func debugAction(kind string, amount int64, phase, tier, rogue string) (protocol.PlayerAction, error) {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return protocol.PlayerAction{}, fmt.Errorf("missing -kind")
	}
	if !strings.HasPrefix(kind, "Debug") {
		return protocol.PlayerAction{}, fmt.Errorf("-kind must be a Debug* action, got %q", kind)
	}
	return protocol.PlayerAction{Kind: kind, Amount: amount, Phase: phase, Tier: tier, RogueType: rogue}, nil
}

func doRequest(method, u string, body []byte) {
	req, err := http.NewRequest(method, u, bytes.NewReader(body))
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	cl := &http.Client{Timeout: 10 * time.Second}
	resp, err := cl.Do(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	fmt.Println(strings.TrimSpace(string(b)))
	if resp.StatusCode/100 != 2 {
		os.Exit(1)
	}
}
