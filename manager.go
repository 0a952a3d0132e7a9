package searchset

import "sync"

// AppName selects the platform data directories of the process-wide registry
var AppName = "searchset"

// SearchManager is a SearchSet that always holds a default set of
// locations. Clear puts the defaults back instead of leaving it empty.
type SearchManager struct {
	*SearchSet
	defaults func() []Location
}

// NewSearchManager returns a SearchManager populated from defaults
func NewSearchManager(defaults func() []Location, opts ...Option) *SearchManager {
	m := &SearchManager{SearchSet: New(opts...), defaults: defaults}
	m.Clear()
	return m
}

// Clear drops every archive and registers the default locations again
func (m *SearchManager) Clear() {
	m.SearchSet.Clear()
	if m.defaults == nil {
		return
	}
	for _, loc := range m.defaults() {
		if m.HasArchive(loc.Name) {
			continue
		}
		if err := m.AddDirectory(loc.Name, loc.Path, loc.Priority, loc.Depth, loc.Flat); err != nil {
			m.logger.Warn("cannot add default location", "name", loc.Name, "path", loc.Path, "error", err)
		}
	}
}

var (
	registryMu       sync.Mutex
	registry         *SearchManager
	registryDefaults = func() []Location { return DefaultLocations(AppName) }
	registryOptions  []Option
)

// Registry returns the process-wide SearchManager, creating it on first use
func Registry() *SearchManager {
	registryMu.Lock()
	defer registryMu.Unlock()
	if registry == nil {
		registry = NewSearchManager(registryDefaults, registryOptions...)
	}
	return registry
}

// ConfigureRegistry changes how the registry is built. A registry that
// already exists is shut down first, so this belongs in program start up.
func ConfigureRegistry(defaults func() []Location, opts ...Option) {
	ShutdownRegistry()

	registryMu.Lock()
	defer registryMu.Unlock()
	if defaults != nil {
		registryDefaults = defaults
	}
	registryOptions = opts
}

// ShutdownRegistry releases every archive owned by the registry. Call it
// once at exit, after everything that reads through the registry is done.
func ShutdownRegistry() {
	registryMu.Lock()
	m := registry
	registry = nil
	registryMu.Unlock()

	if m != nil {
		m.SearchSet.Clear()
	}
}
