//go:build !deepmode

package bridge

const deepModeAvailable = false

// IsDeepModeAvailable reports whether deep mode is compiled in.
func IsDeepModeAvailable() bool { return false }
