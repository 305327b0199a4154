// Copyright 2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package notify

import "testing"

func TestRender(t *testing.T) {
	t.Parallel()
	vars := map[string]string{
		"DRONE_REPO":         "acme/app",
		"DRONE_COMMIT_SHA":   "abc123",
		"DRONE_BUILD_STATUS": "success",
		"EMPTY":              "",
	}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{
			name:     "full substitution",
			template: "${DRONE_REPO} ${DRONE_COMMIT_SHA} ${DRONE_BUILD_STATUS}",
			want:     "acme/app abc123 success",
		},
		{
			name:     "unresolved placeholder kept literally",
			template: "Build: ${UNKNOWN_VAR}",
			want:     "Build: ${UNKNOWN_VAR}",
		},
		{
			name:     "repeated placeholder resolves identically",
			template: "${DRONE_REPO}/${DRONE_REPO}",
			want:     "acme/app/acme/app",
		},
		{
			name:     "empty value substitutes to nothing",
			template: "a${EMPTY}b",
			want:     "ab",
		},
		{
			name:     "surrounding text preserved",
			template: "build of ${DRONE_REPO} finished: ${DRONE_BUILD_STATUS}!",
			want:     "build of acme/app finished: success!",
		},
		{
			name:     "bare dollar passes through",
			template: "cost: $5 and $DRONE_REPO",
			want:     "cost: $5 and $DRONE_REPO",
		},
		{
			name:     "unterminated placeholder passes through",
			template: "broken ${DRONE_REPO",
			want:     "broken ${DRONE_REPO",
		},
		{
			name:     "trailing dollar",
			template: "dangling $",
			want:     "dangling $",
		},
		{
			name:     "trailing dollar-brace",
			template: "dangling ${",
			want:     "dangling ${",
		},
		{
			name:     "empty braces pass through",
			template: "odd ${} here",
			want:     "odd ${} here",
		},
		{
			name:     "adjacent placeholders",
			template: "${DRONE_REPO}${DRONE_BUILD_STATUS}",
			want:     "acme/appsuccess",
		},
		{
			name:     "value is not rescanned",
			template: "${LOOP}",
			want:     "${LOOP}",
		},
		{
			name:     "empty template",
			template: "",
			want:     "",
		},
		{
			name:     "no placeholders",
			template: "static text",
			want:     "static text",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Render(tt.template, vars); got != tt.want {
				t.Errorf("Render(%q): got %q, want %q", tt.template, got, tt.want)
			}
		})
	}
}

func TestRenderValueContainingPlaceholder(t *testing.T) {
	t.Parallel()
	vars := map[string]string{
		"A": "${B}",
		"B": "boom",
	}
	if got := Render("${A}", vars); got != "${B}" {
		t.Errorf("substituted values must not be expanded again, got %q", got)
	}
}

func TestRenderEmptyVars(t *testing.T) {
	t.Parallel()
	template := "${DRONE_REPO} ${DRONE_BUILD_STATUS}"
	if got := Render(template, nil); got != template {
		t.Errorf("rendering with no variables must be the identity, got %q", got)
	}
}
