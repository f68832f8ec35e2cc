package artifact

import "github.com/jonboulle/clockwork"

// clock is a package-level time source so tests can freeze artifact date stamps via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for date stamps. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// stampLayout is the YYYYMMDD suffix of artifact file names.
const stampLayout = "20060102"

func stamp() string {
	return clock.Now().Format(stampLayout)
}
