package commsutil

import (
	"fmt"
	"strings"
)

// Default COMMS subjects.
const (
	SubjectAPI         = "api.v1.execute"
	SubjectEventPrefix = "api.events"
	SubjectChangeEvent = "api.changed"
)

// BuildEventSubject builds a granular lifecycle event subject, e.g.
// "api.events.items.create.post". Dots in the resource name become
// underscores so the resource stays a single subject token.
func BuildEventSubject(prefix, resource, event string) string {
	safe := strings.ReplaceAll(resource, ".", "_")
	return fmt.Sprintf("%s.%s.%s", prefix, safe, event)
}

// BuildResourceSubject builds a request subject scoped to one resource.
func BuildResourceSubject(base, resource string) string {
	safe := strings.ReplaceAll(resource, ".", "_")
	return fmt.Sprintf("%s.%s", base, safe)
}
