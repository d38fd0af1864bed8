//go:build !linux

package launch

// setProcessTitle is a no-op where the platform has no equivalent of
// PR_SET_NAME.
func setProcessTitle(string) error {
	return nil
}
