//go:build !linux
// +build !linux

package device

// Open implements the unsupported case.
func Open(index int) (Device, error) {
	return nil, ErrUnsupported
}

// DetectAndOpen implements the unsupported case.
func DetectAndOpen(startIndex int) (Device, error) {
	return nil, ErrUnsupported
}
