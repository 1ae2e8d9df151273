package core

import (
	"context"
	"fmt"
	"time"

	"github.com/vovakirdan/syncwatch-server/internal/proto"
)

const credentialTimeout = 5 * time.Second

// adminLogin starts an asynchronous credential check. The outcome is applied
// by finishAdminLogin in a later hub step; until then the session is marked
// so a second attempt cannot race the attempt counter.
func (h *Hub) adminLogin(c *Client, p proto.AdminLoginData) *CoreError {
	if c.IsAdmin {
		return errUnauthorized("Already logged in.")
	}
	if c.loginPending {
		return errUnauthorized("Login already in progress.")
	}
	if h.opts.Credentials == nil {
		return coreError(ErrCodeUnavailable, "Admin login is unavailable.")
	}

	c.loginPending = true
	creds := h.opts.Credentials
	parent := h.ctx
	go func() {
		ctx, cancel := context.WithTimeout(parent, credentialTimeout)
		defer cancel()
		check, err := creds.CheckAdmin(ctx, p.UserName, p.Password)
		h.submit(func() { h.finishAdminLogin(c, p.UserName, check, err) })
	}()
	return nil
}

func (h *Hub) finishAdminLogin(c *Client, username string, check AdminCheck, lookupErr error) {
	c.loginPending = false
	if _, ok := h.sessions[c.ID]; !ok {
		return
	}

	source := proto.InboundTypeAdminLogin
	switch {
	case lookupErr != nil:
		h.log.Error().Err(lookupErr).Str("client_id", c.ID).Msg("admin credential lookup failed")
		h.sendError(c, source, coreError(ErrCodeUnavailable, "Admin login is unavailable."))
		return
	case c.IsAdmin:
		h.sendError(c, source, errUnauthorized("Already logged in."))
		return
	case !check.Exists || !check.Approved:
		h.sendError(c, source, errUnauthorized(fmt.Sprintf("Unknown or unapproved account %s.", username)))
		return
	case c.AdminAttempts >= h.opts.MaxAdminLoginAttempts:
		h.sendError(c, source, errUnauthorized("Too many failed login attempts."))
		return
	case !check.PasswordMatch:
		c.AdminAttempts++
		h.log.Warn().Str("client_id", c.ID).Str("account", username).Int("attempts", c.AdminAttempts).Msg("admin login failed")
		h.sendError(c, source, errUnauthorized("Incorrect password."))
		return
	}

	initContent := proto.AdminInitContent{
		Rooms:  h.roomSummaries(false),
		Users:  h.directory(),
		Uptime: h.opts.Now().Sub(h.started).Seconds(),
	}
	if h.opts.Logs != nil {
		initContent.Log = h.opts.Logs.Snapshot()
	}
	if h.opts.Tokens != nil {
		token, err := h.opts.Tokens.IssueAdminToken(username)
		if err != nil {
			h.log.Warn().Err(err).Str("account", username).Msg("issue admin token")
		}
		initContent.Token = token
	}

	c.AdminAttempts = 0
	c.IsAdmin = true
	c.adminAccount = username
	h.admins[c.ID] = c
	h.log.Info().Str("client_id", c.ID).Str("account", username).Msg("admin logged in")
	h.send(c, proto.AdminTypeInit, initContent)
}

func (h *Hub) adminLogout(c *Client) *CoreError {
	if !c.IsAdmin {
		return errUnauthorized("You are not logged in.")
	}
	c.IsAdmin = false
	c.adminAccount = ""
	delete(h.admins, c.ID)
	h.log.Info().Str("client_id", c.ID).Msg("admin logged out")
	h.send(c, proto.OutboundTypeInfo, proto.InfoContent{Message: "Logged out."})
	return nil
}

func (h *Hub) shutdown(c *Client) *CoreError {
	if !c.IsAdmin {
		return permissionDenied()
	}
	h.log.Warn().Str("client_id", c.ID).Msg("shutdown requested by admin")
	h.notifyAll("The server is shutting down.")
	if h.opts.OnShutdown != nil {
		h.opts.OnShutdown(nil)
	}
	return nil
}

func (h *Hub) directory() []proto.Profile {
	sessions := h.sortedSessions()
	out := make([]proto.Profile, 0, len(sessions))
	for _, c := range sessions {
		out = append(out, profileOf(c))
	}
	return out
}
