package engine

import "time"

// Options configures a session Engine (spec §6 Options).
type Options struct {
	// EnableEnforcement starts the turn/timeout monitor alongside the
	// engine.
	EnableEnforcement bool

	// EnablePersistence requires SnapshotPath to be set (ValidateBasic
	// checks it); AutoSaveInterval is not checked. The engine runs no
	// auto-save loop and reads neither AutoSaveInterval nor
	// EnablePersistence beyond that check; snapshots are written only by
	// SaveSnapshot.
	EnablePersistence  bool
	SnapshotPath       string
	AutoSaveInterval   time.Duration

	// DifficultyBits is the ledger's proof-of-work tamper cost.
	DifficultyBits uint32

	// ClockSkewTolerance is I4's timestamp-monotonicity tolerance.
	ClockSkewTolerance time.Duration

	// MonitorTick is how often the enforcement monitor inspects
	// pending_action.
	MonitorTick time.Duration
}

// DefaultOptions returns the spec's default Options.
func DefaultOptions() *Options {
	return &Options{
		EnableEnforcement:  true,
		EnablePersistence:  false,
		DifficultyBits:     2,
		ClockSkewTolerance: 2 * time.Second,
		MonitorTick:        1 * time.Second,
	}
}

// ValidateBasic rejects an incoherent Options value before it is used
// to construct an Engine.
func (o *Options) ValidateBasic() error {
	if o.EnablePersistence && o.SnapshotPath == "" {
		return ErrInvalidOptions
	}
	if o.MonitorTick <= 0 {
		return ErrInvalidOptions
	}
	return nil
}
