package reconcile

import "lovelink/pkg/relationship"

// Reconcile merges two copies of a score. The result never drops below either
// input, so applying it repeatedly is a no-op.
func Reconcile(local, remote int) int {
	if remote > local {
		return remote
	}
	return local
}

// Merge combines the local and remote copies of a profile. A copy from a later
// reset epoch wins outright. Within the same epoch every counter takes its
// maximum and the infinite-mode latch stays closed once either side closed it.
// writeBack reports whether the remote copy is behind the merge.
func Merge(local, remote relationship.Profile) (merged relationship.Profile, writeBack bool) {
	switch {
	case remote.ResetEpoch > local.ResetEpoch:
		merged = remote
		merged.ID = local.ID
		return merged, false
	case remote.ResetEpoch < local.ResetEpoch:
		return local, true
	}

	merged = relationship.Profile{
		ID:                   local.ID,
		IntimacyScore:        Reconcile(local.IntimacyScore, remote.IntimacyScore),
		TotalDateCount:       max(local.TotalDateCount, remote.TotalDateCount),
		InfiniteModeUnlocked: local.InfiniteModeUnlocked || remote.InfiniteModeUnlocked,
		InfiniteDateCount:    max(local.InfiniteDateCount, remote.InfiniteDateCount),
		ResetEpoch:           local.ResetEpoch,
		UpdatedAt:            local.UpdatedAt,
	}
	if remote.UpdatedAt.After(merged.UpdatedAt) {
		merged.UpdatedAt = remote.UpdatedAt
	}
	if merged.IntimacyScore >= relationship.InfiniteModeThreshold {
		merged.InfiniteModeUnlocked = true
	}

	return merged, !merged.SameProgress(remote)
}
