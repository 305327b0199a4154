// Copyright 2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package notify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// endpointCall records which API endpoints were hit during a test.
type endpointCall struct {
	Method string
	Path   string
	Body   string
}

// fakeHomeserver wraps an httptest.Server simulating the Matrix
// client-server API endpoints the plugin touches: login, send, logout.
// It records calls and provides canned responses.
type fakeHomeserver struct {
	Server *httptest.Server

	mu    sync.Mutex
	calls []endpointCall

	// UserID and Password accepted by the login endpoint.
	UserID   string
	Password string
	// AccessToken issued on successful login and accepted on sends.
	AccessToken string

	// FailLogin makes the login endpoint reject all credentials.
	FailLogin bool
	// FailSend makes the send endpoint return M_FORBIDDEN.
	FailSend bool
}

func newFakeHomeserver() *fakeHomeserver {
	f := &fakeHomeserver{
		UserID:      "@ci:example.com",
		Password:    "hunter2",
		AccessToken: "syt_issued_token",
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

func (f *fakeHomeserver) Close() {
	f.Server.Close()
}

func (f *fakeHomeserver) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls = append(f.calls, endpointCall{Method: r.Method, Path: r.URL.Path, Body: string(body)})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/login") && r.Method == http.MethodPost:
		f.handleLogin(w, body)
	case strings.Contains(r.URL.Path, "/send/") && r.Method == http.MethodPut:
		f.handleSend(w)
	case strings.HasSuffix(r.URL.Path, "/logout") && r.Method == http.MethodPost:
		writeJSON(w, http.StatusOK, map[string]any{})
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{
			"errcode": "M_UNRECOGNIZED",
			"error":   "Unrecognized request",
		})
	}
}

func (f *fakeHomeserver) handleLogin(w http.ResponseWriter, body []byte) {
	var req struct {
		Type       string `json:"type"`
		Identifier struct {
			User string `json:"user"`
		} `json:"identifier"`
		Password string `json:"password"`
	}
	_ = json.Unmarshal(body, &req)

	if f.FailLogin || req.Type != "m.login.password" || req.Identifier.User != f.UserID || req.Password != f.Password {
		writeJSON(w, http.StatusForbidden, map[string]any{
			"errcode": "M_FORBIDDEN",
			"error":   "Invalid password",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":      f.UserID,
		"access_token": f.AccessToken,
		"device_id":    "NOTIFYDEV",
	})
}

func (f *fakeHomeserver) handleSend(w http.ResponseWriter) {
	if f.FailSend {
		writeJSON(w, http.StatusForbidden, map[string]any{
			"errcode": "M_FORBIDDEN",
			"error":   "You are not joined to this room",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"event_id": "$notification:example.com"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Calls returns a copy of the recorded endpoint calls.
func (f *fakeHomeserver) Calls() []endpointCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]endpointCall, len(f.calls))
	copy(cp, f.calls)
	return cp
}

// CallsTo returns the recorded calls whose path contains fragment.
func (f *fakeHomeserver) CallsTo(fragment string) []endpointCall {
	var out []endpointCall
	for _, c := range f.Calls() {
		if strings.Contains(c.Path, fragment) {
			out = append(out, c)
		}
	}
	return out
}
