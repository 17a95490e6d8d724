package finding

// Lifecycle tags a fingerprint's state relative to the prior snapshot
// of the same repository.
type Lifecycle string

const (
	// LifecycleNew means the fingerprint was not in the prior snapshot.
	LifecycleNew Lifecycle = "new"

	// LifecyclePersistent means the fingerprint was live in the prior
	// snapshot and is still present.
	LifecyclePersistent Lifecycle = "persistent"

	// LifecycleResolved means the fingerprint was live previously and
	// is absent from the current run.
	LifecycleResolved Lifecycle = "resolved"

	// LifecycleRegressed means the fingerprint reappeared after having
	// been resolved in an earlier run.
	LifecycleRegressed Lifecycle = "regressed"
)

// IsValid reports whether l is a recognized lifecycle tag.
func (l Lifecycle) IsValid() bool {
	switch l {
	case LifecycleNew, LifecyclePersistent, LifecycleResolved, LifecycleRegressed:
		return true
	}
	return false
}

// String returns the lifecycle tag as a string.
func (l Lifecycle) String() string {
	return string(l)
}
