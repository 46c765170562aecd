package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewUploadID builds a unique upload identifier: creation time in unix
// milliseconds plus a random suffix. The timestamp keeps ids roughly
// sortable in diagnostics; the suffix makes collisions within one
// millisecond effectively impossible.
func NewUploadID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d-%s", now.UnixMilli(), suffix)
}
