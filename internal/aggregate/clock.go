package aggregate

import "time"

// Now is the wall clock used to stamp OccurredAt at emission time.
// Overridable in tests for deterministic ordering assertions.
var Now = time.Now
