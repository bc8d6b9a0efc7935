package drawer

import (
	"time"

	"github.com/google/uuid"
)

// Clock stamps created_on, last_modified and uploaded_on.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock. Stored timestamps are always UTC.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// IDGenerator assigns ids to new directories and files.
type IDGenerator interface {
	New() string
}

// UUIDGenerator issues random (version 4) UUID strings.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.NewString() }
