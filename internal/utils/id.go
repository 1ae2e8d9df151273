package utils

import (
	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
)

// NewSessionID returns a globally unique session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// NewRoomID returns a short identifier that is easy to share with friends.
func NewRoomID() string {
	return shortuuid.New()
}
