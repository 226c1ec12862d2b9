package plugin

// The ABI demands a process-wide plugin object owned by the plugin
// itself, never by the host. Plugin authors set the metadata once and
// register block types against Instance; Make and Free are the loader
// and unloader entry points of the ABI.

// instance is created eagerly at package initialisation.
var instance = New(Metadata{})

// Instance returns the process-wide plugin object.
func Instance() *Base {
	return instance
}

// SetMetadata describes the process-wide plugin. Called once from the
// plugin's init.
func SetMetadata(m Metadata) {
	Instance().metadata = m
}

// Make is the loader entry point: it hands the process-wide plugin to
// the host.
func Make() Plugin {
	return Instance()
}

// Free is the unloader entry point. The host passes back the plugin it
// was handed; anything else is ignored since the plugin owns its
// instance.
func Free(p Plugin) {
	if p != Plugin(Instance()) {
		return
	}
	// the instance stays owned by the plugin; nothing to release
}
