package dwm

import (
	"fmt"
)

// Position is a location engine solution with coordinates in meters.
type Position struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	Quality uint8   `json:"quality"`
}

// Equal reports whether two readings carry the same coordinates. The
// comparison is exact: a tag that has not recomputed its solution
// repeats byte identical values, while a fresh solution differs by at
// least the measurement noise.
func (p Position) Equal(other Position) bool {
	return p.X == other.X && p.Y == other.Y && p.Z == other.Z
}

func (p Position) String() string {
	return fmt.Sprintf("X=%.3fm, Y=%.3fm, Z=%.3fm, Quality=%d", p.X, p.Y, p.Z, p.Quality)
}
