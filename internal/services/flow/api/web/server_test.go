package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/louisbranch/lancerflow/internal/core/dice"
	apperrors "github.com/louisbranch/lancerflow/internal/platform/errors"
	"github.com/louisbranch/lancerflow/internal/services/flow/app"
	"github.com/louisbranch/lancerflow/internal/systems/lancer"
)

func newServer(t *testing.T, faces ...int) *httptest.Server {
	t.Helper()
	a, err := app.New(context.Background(), app.Config{
		DBPath: filepath.Join(t.TempDir(), "flow.db"),
		Dice:   dice.NewSequence(faces...),
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	ctx := context.Background()
	actors := []lancer.Actor{
		{UUID: "m1", Name: "Raven", Type: lancer.ActorMech, System: lancer.ActorSystem{TechAttack: 1}},
		{UUID: "t1", Name: "Drone", Type: lancer.ActorNPC, System: lancer.ActorSystem{Tier: 1, EDefense: 9}},
		{UUID: "d1", Name: "Turret", Type: lancer.ActorDeployable},
	}
	for _, actor := range actors {
		if err := a.Store.PutActor(ctx, actor); err != nil {
			t.Fatalf("put actor: %v", err)
		}
	}
	srv := httptest.NewServer(NewHandler(a, nil))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(data)
}

func dataMacro(t *testing.T, fragment string) string {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var token string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for _, a := range n.Attr {
			if a.Key == "data-macro" {
				token = a.Val
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return token
}

func TestHealthz(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestTechAttackAndReroll(t *testing.T) {
	srv := newServer(t, 4, 4, 1, 2)
	resp, body := post(t, srv, "/flows/tech", `{"source_id":"m1","target_ids":["t1"]}`)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("X-Flow-State") != "done" {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	token := dataMacro(t, body)
	if token == "" {
		t.Fatalf("card has no data-macro: %s", body)
	}

	resp, body = post(t, srv, "/macros", `{"token":"`+token+`","target_ids":["t1"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	if !strings.Contains(body, "MISS") {
		t.Fatalf("expected miss on reroll: %s", body)
	}
}

func TestAbortStatuses(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   apperrors.Code
	}{
		{"malformed token", "/macros", `{"token":"@@@"}`, http.StatusBadRequest, apperrors.CodeInvocationMalformed},
		{"unknown function", "/macros", `{"token":"eyJmbiI6Im5vcGUifQ"}`, http.StatusNotFound, apperrors.CodeInvocationUnknownFunction},
		{"missing source", "/flows/tech", `{"source_id":"ghost"}`, http.StatusNotFound, apperrors.CodeFlowSourceMissing},
		{"not a tech attacker", "/flows/tech", `{"source_id":"d1"}`, http.StatusConflict, apperrors.CodeFlowInvalidTechAttacker},
		{"edit for unselected target", "/flows/tech", `{"source_id":"m1","target_ids":["t1"],"targets":{"nobody":{"accuracy":1}}}`, http.StatusBadRequest, apperrors.CodeFlowEditInvalid},
		{"unknown target id", "/flows/tech", `{"source_id":"m1","target_ids":["ghost"]}`, http.StatusNotFound, apperrors.CodeFlowTargetMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t)
			resp, body := post(t, srv, tt.path, tt.body)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
			}
			if !strings.Contains(body, `data-code="`+string(tt.code)+`"`) {
				t.Fatalf("body = %s", body)
			}
		})
	}
}

func TestCancelReturnsNoContent(t *testing.T) {
	srv := newServer(t)
	resp, _ := post(t, srv, "/flows/tech", `{"source_id":"m1","cancel":true}`)
	if resp.StatusCode != http.StatusNoContent || resp.Header.Get("X-Flow-State") != "aborted" {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestBadBodies(t *testing.T) {
	srv := newServer(t)
	for _, body := range []string{`not json`, `{"source_id":"m1","extra":1}`, `{}`} {
		resp, _ := post(t, srv, "/flows/tech", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("body %s: status = %d", body, resp.StatusCode)
		}
	}
}

type failingFlows struct{}

func (failingFlows) TechAttack(context.Context, string, string, app.Request) (app.Response, error) {
	return app.Response{}, errors.New("disk on fire")
}

func (failingFlows) RunMacro(context.Context, string, app.Request) (app.Response, error) {
	return app.Response{}, errors.New("disk on fire")
}

func TestInfrastructureErrorIs500(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/macros", strings.NewReader(`{"token":"x"}`))
	NewHandler(failingFlows{}, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError || strings.Contains(rec.Body.String(), "disk") {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestStatusFor(t *testing.T) {
	if StatusFor(apperrors.CodeFlowFeatureNotCharged) != http.StatusConflict || StatusFor(apperrors.CodeUnknown) != http.StatusInternalServerError {
		t.Fatal("unexpected status mapping")
	}
	if StatusFor(apperrors.CodeFlowEditInvalid) != http.StatusBadRequest || StatusFor(apperrors.CodeFlowTargetMissing) != http.StatusNotFound {
		t.Fatal("unexpected status mapping")
	}
}
