// Package series holds the aggregated time series the consumer maintains:
// three parallel ordered sequences keyed by arrival order, one entry per
// successfully decoded message.
package series

// State owns the three parallel sequences. Index i across all three refers to
// the same logical event. Calorie and activity values stay nullable so that a
// missing field is distinguishable from a zero reading.
//
// State is not safe for concurrent use; the consumption loop is the only
// writer and hands read-only snapshots to observers.
type State struct {
	days     []string
	calories []*int
	activity []*int
}

// Snapshot is an immutable copy of the state at one point in time.
type Snapshot struct {
	Days     []string
	Calories []*int
	Activity []*int
}

// NewState returns an empty State.
func NewState() *State {
	return &State{}
}

// Append adds one entry to all three sequences in lock step.
func (s *State) Append(day string, calories, activity *int) {
	s.days = append(s.days, day)
	s.calories = append(s.calories, calories)
	s.activity = append(s.activity, activity)
}

// Len reports the number of entries. All three sequences always share it.
func (s *State) Len() int {
	return len(s.days)
}

// Snapshot copies the current contents so observers can read them without
// holding up the append path.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Days:     make([]string, len(s.days)),
		Calories: make([]*int, len(s.calories)),
		Activity: make([]*int, len(s.activity)),
	}
	copy(snap.Days, s.days)
	copy(snap.Calories, s.calories)
	copy(snap.Activity, s.activity)
	return snap
}
