package types

// UpgradeOutcomeKind discriminates the UpgradeResult variants returned
// by the lifecycle controller's upgrade operation.
type UpgradeOutcomeKind int

const (
	// UpgradeOutcomeNotRequired means the target version was not newer
	// than the current one and force was not set.
	UpgradeOutcomeNotRequired UpgradeOutcomeKind = iota
	// UpgradeOutcomeUpgraded means the binary swap and restart succeeded.
	UpgradeOutcomeUpgraded
	// UpgradeOutcomeUpgradedButNotStarted means the swap succeeded but
	// the post-start pid probe failed.
	UpgradeOutcomeUpgradedButNotStarted
	// UpgradeOutcomeForced means a same-or-downgrade migration completed
	// because force was set.
	UpgradeOutcomeForced
)

func (k UpgradeOutcomeKind) String() string {
	switch k {
	case UpgradeOutcomeNotRequired:
		return "NotRequired"
	case UpgradeOutcomeUpgraded:
		return "Upgraded"
	case UpgradeOutcomeUpgradedButNotStarted:
		return "UpgradedButNotStarted"
	case UpgradeOutcomeForced:
		return "Forced"
	default:
		return "Unknown"
	}
}

// UpgradeResult is the closed result type of the upgrade operation.
// OldVersion/NewVersion are populated for every variant except
// NotRequired; Reason is populated only for UpgradedButNotStarted.
type UpgradeResult struct {
	Kind       UpgradeOutcomeKind
	OldVersion string
	NewVersion string
	Reason     string
}

// NotRequired constructs the NotRequired variant.
func NotRequired() UpgradeResult {
	return UpgradeResult{Kind: UpgradeOutcomeNotRequired}
}

// Upgraded constructs the Upgraded variant.
func Upgraded(oldVersion, newVersion string) UpgradeResult {
	return UpgradeResult{Kind: UpgradeOutcomeUpgraded, OldVersion: oldVersion, NewVersion: newVersion}
}

// UpgradedButNotStarted constructs the UpgradedButNotStarted variant.
func UpgradedButNotStarted(oldVersion, newVersion, reason string) UpgradeResult {
	return UpgradeResult{
		Kind:       UpgradeOutcomeUpgradedButNotStarted,
		OldVersion: oldVersion,
		NewVersion: newVersion,
		Reason:     reason,
	}
}

// Forced constructs the Forced variant.
func Forced(oldVersion, newVersion string) UpgradeResult {
	return UpgradeResult{Kind: UpgradeOutcomeForced, OldVersion: oldVersion, NewVersion: newVersion}
}
