// Package e2e drives the custody HTTP API end to end with godog features.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"custody/internal/app"
	"custody/internal/platform/config"
	id "custody/pkg/domain"
)

// participants maps scenario aliases to fixed identities.
var participants = map[string]id.Identity{
	"admin":   id.MustParseIdentity("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"),
	"acme":    id.MustParseIdentity("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"),
	"freight": id.MustParseIdentity("0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB"),
	"haulage": id.MustParseIdentity("0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb"),
	"corner":  id.MustParseIdentity("0x52908400098527886E0F7030069857D2E4169EE7"),
	"buyer":   id.MustParseIdentity("0x8617E340B3D01FA5F11F306F4090FD50E238070D"),
}

// TestContext owns one in-process server per scenario and the last response.
type TestContext struct {
	app    *app.App
	server *httptest.Server
	client *http.Client

	lastStatus int
	lastBody   []byte
}

func NewTestContext() *TestContext {
	return &TestContext{client: &http.Client{Timeout: 10 * time.Second}}
}

// Start boots a fresh in-memory deployment.
func (tc *TestContext) Start(ctx context.Context) error {
	tc.Stop()
	cfg := config.FromEnv()
	cfg.AdminIdentity = participants["admin"].String()
	cfg.JWTSigningKey = "e2e-signing-key"
	cfg.Database.URL = ""
	cfg.Redis.URL = ""
	cfg.Kafka.Brokers = nil
	cfg.SeedFile = ""

	a, err := app.New(ctx, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		return err
	}
	tc.app = a
	tc.server = httptest.NewServer(a.Router)
	tc.lastStatus, tc.lastBody = 0, nil
	return nil
}

func (tc *TestContext) Stop() {
	if tc.server != nil {
		tc.server.Close()
		tc.server = nil
	}
	if tc.app != nil {
		_ = tc.app.Close()
		tc.app = nil
	}
}

// Identity resolves a scenario alias.
func (tc *TestContext) Identity(alias string) (id.Identity, error) {
	identity, ok := participants[strings.ToLower(alias)]
	if !ok {
		return id.Identity{}, fmt.Errorf("unknown participant %q", alias)
	}
	return identity, nil
}

// Send performs a request as alias without touching the recorded response.
func (tc *TestContext) Send(alias, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, tc.server.URL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if alias != "" {
		caller, err := tc.Identity(alias)
		if err != nil {
			return 0, nil, err
		}
		token, err := tc.app.Tokens.GenerateAccessToken(caller, time.Minute)
		if err != nil {
			return 0, nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, raw, nil
}

// Do performs a request as alias and records the response.
func (tc *TestContext) Do(alias, method, path string, body any) error {
	status, raw, err := tc.Send(alias, method, path, body)
	if err != nil {
		return err
	}
	tc.lastStatus, tc.lastBody = status, raw
	return nil
}

func (tc *TestContext) StatusCode() int {
	return tc.lastStatus
}

// Decode unmarshals the last response body into v.
func (tc *TestContext) Decode(v any) error {
	if err := json.Unmarshal(tc.lastBody, v); err != nil {
		return fmt.Errorf("decode response %q: %w", tc.lastBody, err)
	}
	return nil
}

// ResponseField returns a top-level field of the last JSON response.
func (tc *TestContext) ResponseField(field string) (any, error) {
	var body map[string]any
	if err := tc.Decode(&body); err != nil {
		return nil, err
	}
	value, ok := body[field]
	if !ok {
		return nil, fmt.Errorf("response has no field %q: %s", field, tc.lastBody)
	}
	return value, nil
}

// ExpectStatus fails unless the last response had want.
func (tc *TestContext) ExpectStatus(want int) error {
	if tc.lastStatus != want {
		return fmt.Errorf("expected status %d, got %d: %s", want, tc.lastStatus, tc.lastBody)
	}
	return nil
}

// PublishPending runs one relay pass and returns how many notifications went out.
func (tc *TestContext) PublishPending(ctx context.Context) (int, error) {
	return tc.app.Relay.Flush(ctx)
}
