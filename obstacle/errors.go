package obstacle

import "errors"

// ErrInvalidObstacle indicates an obstacle was registered with a
// non-positive radius.
var ErrInvalidObstacle = errors.New("obstacle: radius must be positive")
