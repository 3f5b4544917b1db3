package chore

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

var statusRank = map[Status]int{
	StatusOverdue:           1,
	StatusDueSoon:           2,
	StatusCompletedRecently: 3,
}

func rank(s Status) int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return 4
}

// compareDue orders due dates ascending. A nil date compares as latest when
// nilLast is set, earliest otherwise.
func compareDue(a, b *time.Time, nilLast bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		if nilLast {
			return 1
		}
		return -1
	case b == nil:
		if nilLast {
			return -1
		}
		return 1
	}
	return a.Compare(*b)
}

// priorityFirst orders flagged chores before unflagged ones.
func priorityFirst(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return -1
	default:
		return 1
	}
}

// CompareListing is the order used by every full chore listing: status rank,
// then priority, then next due date (missing last), then longer frequencies
// first. The id breaks remaining ties.
func CompareListing(a, b View) int {
	if c := cmp.Compare(rank(a.Status), rank(b.Status)); c != 0 {
		return c
	}
	if c := priorityFirst(a.IsPriority, b.IsPriority); c != 0 {
		return c
	}
	if c := compareDue(a.NextDue, b.NextDue, true); c != 0 {
		return c
	}
	if c := cmp.Compare(b.FrequencyDays, a.FrequencyDays); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// SortListing sorts views in listing order.
func SortListing(views []View) {
	slices.SortStableFunc(views, CompareListing)
}

// SortByDue sorts views by next due date, missing dates last. Used for a
// single assignee's chores and for the priority list.
func SortByDue(views []View) {
	slices.SortStableFunc(views, func(a, b View) int {
		if c := compareDue(a.NextDue, b.NextDue, true); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// DigestGroup is one assignee's block in the digest.
type DigestGroup struct {
	Assignee string
	Chores   []View
}

// GroupForDigest groups views by assignee name, alphabetically. Inside a
// group priority chores come first and each part runs from the latest due
// date to the earliest; a missing due date counts as earliest.
func GroupForDigest(views []View) []DigestGroup {
	byName := make(map[string][]View)
	for _, v := range views {
		byName[v.OwnerName] = append(byName[v.OwnerName], v)
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	slices.Sort(names)

	groups := make([]DigestGroup, 0, len(names))
	for _, name := range names {
		chores := byName[name]
		slices.SortStableFunc(chores, func(a, b View) int {
			if c := priorityFirst(a.IsPriority, b.IsPriority); c != 0 {
				return c
			}
			if c := compareDue(b.NextDue, a.NextDue, false); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
		groups = append(groups, DigestGroup{Assignee: name, Chores: chores})
	}
	return groups
}

// Matches reports whether query occurs, ignoring case, in the chore's title,
// notes or assignee name. An empty query matches everything.
func Matches(v View, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(v.Title), q) ||
		strings.Contains(strings.ToLower(v.Notes), q) ||
		strings.Contains(strings.ToLower(v.OwnerName), q)
}
