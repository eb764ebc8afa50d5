package estate

// LinkDiff is the change needed to turn a stored inventory into a fresh
// snapshot.
type LinkDiff struct {
	ToAdd    []Link
	ToRemove []Link
}

// Empty reports whether the diff changes nothing.
func (d LinkDiff) Empty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0
}

// Reconcile compares the links seen on this crawl against the stored
// inventory. ToAdd holds links in the snapshot but not the inventory and
// ToRemove holds links in the inventory but not the snapshot. Both are
// sorted so the same inputs always yield the same diff.
//
// An empty snapshot removes the whole inventory. Callers that want to guard
// against a failed crawl wiping live listings must check for that first.
func Reconcile(snapshot, inventory []Link) LinkDiff {
	inSnapshot := make(map[Link]struct{}, len(snapshot))
	for _, l := range snapshot {
		inSnapshot[l] = struct{}{}
	}
	inInventory := make(map[Link]struct{}, len(inventory))
	for _, l := range inventory {
		inInventory[l] = struct{}{}
	}

	var diff LinkDiff
	for l := range inSnapshot {
		if _, ok := inInventory[l]; !ok {
			diff.ToAdd = append(diff.ToAdd, l)
		}
	}
	for l := range inInventory {
		if _, ok := inSnapshot[l]; !ok {
			diff.ToRemove = append(diff.ToRemove, l)
		}
	}
	SortLinks(diff.ToAdd)
	SortLinks(diff.ToRemove)
	return diff
}
