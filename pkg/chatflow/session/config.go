package session

import "github.com/waveline/chatflow/pkg/chatflow/config"

// PolicyFromConfig builds a window policy from deployment
// configuration, starting from the compiled-in defaults. The
// "windows" section maps platform names to durations:
//
//	windows:
//	  whatsapp: 24h
//	  instagram: 168h
//
// Unknown platform names are carried through so an integration can
// introduce a platform without an engine change.
func PolicyFromConfig(cfg config.Config) Policy {
	policy := DefaultPolicy()
	windows := cfg.Section("windows")
	for _, name := range windows.Keys() {
		platform := Platform(name)
		if d := windows.Duration(name, 0); d > 0 {
			policy[platform] = d
		}
	}
	return policy
}
