package config

// Diff is a partial settings update. Nil fields are left unchanged.
type Diff struct {
	APIToken           *string
	AcceptedDisclaimer *bool
	LatestSyncTime     *int64
	SyncEnabled        *bool
	SyncInterval       *int
	SectionHeading     *string
	TagPrefix          *string
	NewlineSeparator   *bool
	RecentCount        *int
	DailyNotesEnabled  *bool
	PinNotesEnabled    *bool
}

// Effect is a scheduling side effect required by a settings change.
type Effect int

const (
	// EffectSchedule (re)arms the sync timer.
	EffectSchedule Effect = iota + 1
	// EffectCancel cancels any armed sync timer.
	EffectCancel
)

func (e Effect) String() string {
	switch e {
	case EffectSchedule:
		return "schedule"
	case EffectCancel:
		return "cancel"
	}
	return "none"
}

// Apply returns cfg updated with d and the scheduling effects the change
// requires. Enabling sync schedules, disabling cancels, and changing the
// interval while enabled reschedules. Sync cannot be enabled before the
// disclaimer is accepted.
func Apply(cfg Config, d Diff) (Config, []Effect) {
	prev := cfg
	set(&cfg.APIToken, d.APIToken)
	set(&cfg.AcceptedDisclaimer, d.AcceptedDisclaimer)
	set(&cfg.LatestSyncTime, d.LatestSyncTime)
	set(&cfg.SyncEnabled, d.SyncEnabled)
	set(&cfg.SyncInterval, d.SyncInterval)
	set(&cfg.SectionHeading, d.SectionHeading)
	set(&cfg.TagPrefix, d.TagPrefix)
	set(&cfg.NewlineSeparator, d.NewlineSeparator)
	set(&cfg.RecentCount, d.RecentCount)
	set(&cfg.DailyNotesEnabled, d.DailyNotesEnabled)
	set(&cfg.PinNotes.Enabled, d.PinNotesEnabled)
	if !cfg.AcceptedDisclaimer {
		cfg.SyncEnabled = false
	}

	var effects []Effect
	switch {
	case !prev.SyncEnabled && cfg.SyncEnabled:
		effects = append(effects, EffectSchedule)
	case prev.SyncEnabled && !cfg.SyncEnabled:
		effects = append(effects, EffectCancel)
	case cfg.SyncEnabled && prev.SyncInterval != cfg.SyncInterval:
		effects = append(effects, EffectSchedule)
	}
	return cfg, effects
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Ptr returns a pointer to v, for building a Diff.
func Ptr[T any](v T) *T {
	return &v
}
