package system

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const (
	MessagePrefix = "msg_"
)

func GenerateUUID() string {
	return uuid.New().String()
}

func newID() string {
	return strings.ToLower(ulid.Make().String())
}

// GenerateMessageID mints the server-assigned identity for a published
// message. IDs are ULIDs so they sort by creation time.
func GenerateMessageID() string {
	return fmt.Sprintf("%s%s", MessagePrefix, newID())
}
