package workflow

import "time"

// timeNow is swapped by tests to freeze timestamps.
var timeNow = time.Now
