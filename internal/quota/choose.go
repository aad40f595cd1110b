package quota

import "github.com/keepstack/keepstack/internal/model"

// SyncItemLimit is the largest payload the synchronized area will take for a
// single key. Anything bigger is routed to the local area.
const SyncItemLimit = 8 * 1024

// ChooseArea picks a quota-limited area for a payload of the estimated size.
// Pure routing policy, independent of any I/O.
func ChooseArea(estimatedSize int64) model.Area {
	if estimatedSize <= SyncItemLimit {
		return model.AreaSync
	}
	return model.AreaLocal
}
