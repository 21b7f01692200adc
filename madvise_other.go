//go:build !linux

package snapdelta

// madviseWillNeed is a no-op on non-Linux platforms.
func madviseWillNeed(data []byte) {
	// No-op
}
