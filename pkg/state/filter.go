package state

import (
	"fmt"

	"rolltodo/pkg/api"
)

// Filter selects which tasks a view shows.
type Filter int

const (
	AllTasks Filter = iota
	DoneTasks
	UndoneTasks
)

func (f Filter) String() string {
	switch f {
	case DoneTasks:
		return "completed only"
	case UndoneTasks:
		return "pending only"
	default:
		return "no filter"
	}
}

// Match reports whether t passes the filter.
func (f Filter) Match(t api.Task) bool {
	switch f {
	case DoneTasks:
		return t.Completed
	case UndoneTasks:
		return !t.Completed
	default:
		return true
	}
}

// FilterFromFlags maps the --done/--undone flags to a Filter.
func FilterFromFlags(doneOnly, undoneOnly bool) (Filter, error) {
	switch {
	case doneOnly && undoneOnly:
		return AllTasks, fmt.Errorf("--done and --undone are mutually exclusive")
	case doneOnly:
		return DoneTasks, nil
	case undoneOnly:
		return UndoneTasks, nil
	}
	return AllTasks, nil
}

// Visible returns the positions of the tasks passing f, in display order.
func (s State) Visible(f Filter) []int {
	out := make([]int, 0, len(s.Tasks))
	for i, t := range s.Tasks {
		if f.Match(t) {
			out = append(out, i)
		}
	}
	return out
}
