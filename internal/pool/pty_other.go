//go:build !linux

package pool

func openPTY() (int, int, string, error) {
	return 0, 0, "", ErrUnsupportedPlatform
}
