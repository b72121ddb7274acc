package maintainer

import (
	"math"
	"time"

	"github.com/joeunion/pidog/internal/logging"
	"github.com/joeunion/pidog/internal/store"
)

// decayImportance implements the importance-decay phase (spec §4.9 step 1):
// stale, unimportant memories lose importance proportional to how long
// they've gone unaccessed beyond a 7-day protection period.
func (m *Maintainer) decayImportance() int {
	stale, err := m.store.Stale(int(protectionPeriod.Hours()/24), decayMaxImportance)
	if err != nil {
		logging.Get(logging.CategoryMaintainer).Error("decay: fetch stale failed: %v", err)
		return 0
	}

	now := time.Now().UTC()
	var updates []store.ImportanceUpdate
	for _, mem := range stale {
		daysSince := now.Sub(mem.LastAccessed).Hours() / 24
		daysBeyond := daysSince - protectionPeriod.Hours()/24
		if daysBeyond < 0 {
			daysBeyond = 0
		}
		newImportance := mem.Importance - decayRatePerDay*daysBeyond
		if newImportance < 0 {
			newImportance = 0
		}
		if abs(newImportance-mem.Importance) < minDecayDelta {
			continue
		}
		updates = append(updates, store.ImportanceUpdate{ID: mem.ID, Importance: newImportance})
	}

	if len(updates) == 0 {
		return 0
	}
	if err := m.store.BulkUpdateImportance(updates); err != nil {
		logging.Get(logging.CategoryMaintainer).Error("decay: bulk update failed: %v", err)
		return 0
	}
	return len(updates)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// prune implements the size-bounded pruning phase (spec §4.9 step 3):
// delete 120% of the count over maxMemories, weakest memories first.
func (m *Maintainer) prune() int {
	stats, err := m.store.Stats()
	if err != nil {
		logging.Get(logging.CategoryMaintainer).Error("prune: stats failed: %v", err)
		return 0
	}
	count := int(stats["memories"])
	if count <= m.maxMemories {
		return 0
	}

	excess := count - m.maxMemories
	target := int(math.Ceil(float64(excess) * pruneOvershoot))
	if target <= 0 {
		return 0
	}

	candidates, err := m.store.PruneCandidates(pruneMaxImportance, target)
	if err != nil {
		logging.Get(logging.CategoryMaintainer).Error("prune: candidates failed: %v", err)
		return 0
	}
	if len(candidates) == 0 {
		return 0
	}

	ids := make([]int64, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	if err := m.store.BulkDelete(ids); err != nil {
		logging.Get(logging.CategoryMaintainer).Error("prune: bulk delete failed: %v", err)
		return 0
	}
	return len(ids)
}

// deduplicateFaces implements the face-dedup phase (spec §4.9 step 4):
// within each name, cluster faces within faceDistanceThreshold and collapse
// each cluster onto its most-seen entry.
func (m *Maintainer) deduplicateFaces() int {
	clusters, err := m.store.DuplicateFaces(faceDistanceThreshold)
	if err != nil {
		logging.Get(logging.CategoryMaintainer).Error("dedup_faces: query failed: %v", err)
		return 0
	}

	merged := 0
	for _, cluster := range clusters {
		if len(cluster) < 2 {
			continue
		}
		keep := cluster[0]
		for _, f := range cluster[1:] {
			if f.TimesSeen > keep.TimesSeen {
				keep = f
			}
		}
		var deleteIDs []int64
		for _, f := range cluster {
			if f.ID != keep.ID {
				deleteIDs = append(deleteIDs, f.ID)
			}
		}
		if len(deleteIDs) == 0 {
			continue
		}
		if err := m.store.MergeFaceEntries(keep.ID, deleteIDs); err != nil {
			logging.Get(logging.CategoryMaintainer).Error("dedup_faces: merge failed: %v", err)
			continue
		}
		merged += len(deleteIDs)
	}
	return merged
}
