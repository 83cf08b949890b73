package payment

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewReference mints a sortable external reference for an intent. ULIDs
// keep gateway dashboards roughly chronological.
func NewReference(now time.Time) string {
	return "PAY-" + ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()
}
