// Copyright 2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/aiku/matrixchat-notify/pkg/notify/markdownfmt"
)

// Client is a single-shot Matrix session: authenticate once, send one
// room message, close. No retries, no sync, no state between invocations.
type Client struct {
	mx  *mautrix.Client
	log zerolog.Logger

	// passwordLogin records that this session was established with a
	// password exchange, so Close knows to log the device out again.
	passwordLogin bool
}

// Dial creates an unauthenticated client for the given homeserver.
func Dial(homeserver string, userID id.UserID, log zerolog.Logger) (*Client, error) {
	mx, err := mautrix.NewClient(homeserver, userID, "")
	if err != nil {
		return nil, fmt.Errorf("invalid homeserver URL: %w", err)
	}
	log = log.With().Str("component", "matrix_client").Logger()
	mx.Log = log
	return &Client{mx: mx, log: log}, nil
}

// Authenticate establishes the session using the resolved auth variant.
// Token mode assigns the pre-issued credentials directly without a
// network round trip; the token is trusted until the send fails.
func (c *Client) Authenticate(ctx context.Context, auth Auth) error {
	switch a := auth.(type) {
	case TokenAuth:
		c.log.Debug().Msg("Using access token for authentication")
		c.mx.AccessToken = a.Token
		if a.DeviceID != "" {
			c.mx.DeviceID = id.DeviceID(a.DeviceID)
		}
		return nil
	case PasswordAuth:
		c.log.Debug().Msg("Logging in with password")
		resp, err := c.mx.Login(ctx, &mautrix.ReqLogin{
			Type: mautrix.AuthTypePassword,
			Identifier: mautrix.UserIdentifier{
				Type: mautrix.IdentifierTypeUser,
				User: c.mx.UserID.String(),
			},
			Password:                 a.Password,
			InitialDeviceDisplayName: a.DeviceName,
			StoreCredentials:         true,
		})
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		c.passwordLogin = true
		c.log.Debug().
			Str("device_id", resp.DeviceID.String()).
			Msg("Matrix login successful")
		return nil
	default:
		return fmt.Errorf("unknown authentication mode %q", auth.authMode())
	}
}

// Send posts one m.room.message notice to the given room and returns the
// event ID. The room must be identified by ID, not alias; that contract
// is enforced during configuration finalization.
func (c *Client) Send(ctx context.Context, room id.RoomID, msg *markdownfmt.Message) (id.EventID, error) {
	content := &event.MessageEventContent{
		MsgType:       event.MsgNotice,
		Body:          msg.Body,
		Format:        msg.Format,
		FormattedBody: msg.FormattedBody,
	}
	resp, err := c.mx.SendMessageEvent(ctx, room, event.EventMessage, content)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	c.log.Info().
		Str("room_id", room.String()).
		Str("event_id", resp.EventID.String()).
		Msg("Sent notification message")
	return resp.EventID, nil
}

// Close terminates the session. Password-mode sessions are logged out so
// the one-shot device doesn't linger; token-mode sessions are not, since
// logging out would invalidate the operator's pre-issued token.
func (c *Client) Close(ctx context.Context) {
	if c.passwordLogin {
		if _, err := c.mx.Logout(ctx); err != nil {
			c.log.Warn().Err(err).Msg("Failed to log out")
		}
	}
	c.mx.Client.CloseIdleConnections()
}
