// Copyright 2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package notify implements a CI pipeline notification plugin for Matrix.
//
// An invocation runs a strictly linear pipeline: load settings from a
// JSON config file and PLUGIN_* invocation parameters, filter the process
// environment through a glob whitelist, render a ${NAME} message
// template, optionally convert the result from markdown to a Matrix HTML
// fragment, then authenticate against the homeserver and send exactly one
// m.room.message notice to the configured room.
//
// # Core Types
//
// [Settings] is the raw merged configuration; [Settings.Finalize]
// validates it into an immutable [Config] whose Auth field is a tagged
// variant: [PasswordAuth] for a standard login exchange, or [TokenAuth]
// for a pre-issued access token with an optional device identity. Exactly
// one mode must be configured.
//
// [Client] wraps a mautrix client for the single-shot session lifecycle
// Unauthenticated → Authenticated → MessageSent → Closed. Nothing is
// retried: any failure is terminal for the invocation and the CI system
// decides whether to rerun the step.
//
// # Sub-packages
//
//   - markdownfmt converts markdown notification text to Matrix HTML.
package notify
