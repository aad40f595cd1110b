package model

// Matches reports whether the item passes every configured filter. Filters
// are AND-composed; category and tag membership are any-of; date bounds are
// inclusive against CreatedAt.
func (f SearchFilters) Matches(item ContentItem) bool {
	if len(f.Types) > 0 && !containsType(f.Types, item.Type) {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, item.Status) {
		return false
	}
	if len(f.Categories) > 0 && !anyOverlap(f.Categories, item.Categories) {
		return false
	}
	if len(f.Tags) > 0 && !anyOverlap(f.Tags, item.Tags) {
		return false
	}
	if f.From != nil && item.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && item.CreatedAt.After(*f.To) {
		return false
	}
	if f.Physical != nil && item.IsPhysical != *f.Physical {
		return false
	}
	return true
}

// IsZero reports whether no filter is configured.
func (f SearchFilters) IsZero() bool {
	return len(f.Types) == 0 && len(f.Statuses) == 0 &&
		len(f.Categories) == 0 && len(f.Tags) == 0 &&
		f.From == nil && f.To == nil && f.Physical == nil
}

func containsType(set []ItemType, v ItemType) bool {
	for _, t := range set {
		if t == v {
			return true
		}
	}
	return false
}

func containsStatus(set []ItemStatus, v ItemStatus) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func anyOverlap(want, have []string) bool {
	for _, w := range want {
		for _, h := range have {
			if w == h {
				return true
			}
		}
	}
	return false
}
