package grid

// options holds construction-time settings of a Grid.
type options struct {
	partitioning Partitioning
	noLocking    bool
	events       Event
	observer     Observer
	identity     TaskIdentity
}

func defaultOptions() options {
	return options{
		partitioning: Partitioning{ChannelInstances: DefaultChannelInstances},
		events:       EventAll,
		identity:     TaskFromContext,
	}
}

// Option configures a Grid.
type Option func(*options)

// WithPartitioning sets the channel grouping used by Key.
func WithPartitioning(p Partitioning) Option {
	return func(o *options) {
		o.partitioning = p
	}
}

// WithLockingDisabled skips the lock wait on every acquire. Bounds checks and
// addressing still apply. Only for single-task or uncontended use.
func WithLockingDisabled() Option {
	return func(o *options) {
		o.noLocking = true
	}
}

// WithObserver installs a diagnostics observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithEvents selects which diagnostic categories reach the observer.
// The default is EventAll.
func WithEvents(events Event) Option {
	return func(o *options) {
		o.events = events
	}
}

// WithTaskIdentity sets the provider naming the calling task in diagnostics.
// It is only consulted when an observer is installed.
func WithTaskIdentity(id TaskIdentity) Option {
	return func(o *options) {
		if id != nil {
			o.identity = id
		}
	}
}
