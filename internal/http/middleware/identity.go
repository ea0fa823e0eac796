// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves who is calling. Token issuance is handled outside this
// service; an upstream gateway forwards the authenticated user as X-User-ID.
// Requests without it are guests, identified by X-Session-ID. A guest that
// sends no session id gets a fresh one, echoed in the response header so the
// client can keep its conversational context on the next request.
package middleware

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// HeaderUserID carries the authenticated user id.
	HeaderUserID = "X-User-ID"
	// HeaderSessionID carries a guest session id.
	HeaderSessionID = "X-Session-ID"

	ctxKeyUserID  = "userID"
	ctxKeyGuestID = "guestID"

	maxIdentityLen = 64
)

var identityRE = regexp.MustCompile(`^[A-Za-z0-9._\-:@]+$`)

// Identity stores the caller in the Gin context: "userID" for authenticated
// callers, "guestID" otherwise. Malformed ids are ignored, so a bad
// X-User-ID makes the caller a guest rather than failing the request.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := validIdentity(c.GetHeader(HeaderUserID)); uid != "" {
			c.Set(ctxKeyUserID, uid)
			c.Next()
			return
		}

		gid := validIdentity(c.GetHeader(HeaderSessionID))
		if gid == "" {
			gid = uuid.NewString()
		}
		c.Set(ctxKeyGuestID, gid)
		c.Writer.Header().Set(HeaderSessionID, gid)
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" for guests.
func UserID(c *gin.Context) string {
	return ctxString(c, ctxKeyUserID)
}

// GuestID returns the guest session id, or "" for authenticated callers.
func GuestID(c *gin.Context) string {
	return ctxString(c, ctxKeyGuestID)
}

func validIdentity(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > maxIdentityLen || !identityRE.MatchString(v) {
		return ""
	}
	return v
}

func ctxString(c *gin.Context, key string) string {
	if v, ok := c.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
