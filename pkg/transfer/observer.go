package transfer

import (
	"github.com/walteh/verifycp/pkg/unit"
)

// 📣 Event describes one unit starting or finishing. Counts travel with the
// event so observers need no counters of their own.
type Event struct {
	Phase     string
	Index     int // position of the unit in resolution order
	Completed int // units finished when the event was emitted
	Total     int
	Unit      unit.TransferUnit
	Result    *unit.IntegrityResult // nil for start events
}

// 👀 Observer receives engine events. In concurrent runs events arrive in
// completion order; Begin says which ordering applies.
type Observer interface {
	Begin(phase string, total int, concurrent bool)
	UnitStarted(ev Event)
	UnitCompleted(ev Event)
	End(phase string)
}

// NopObserver ignores every event
type NopObserver struct{}

func (NopObserver) Begin(string, int, bool) {}
func (NopObserver) UnitStarted(Event)       {}
func (NopObserver) UnitCompleted(Event)     {}
func (NopObserver) End(string)              {}
