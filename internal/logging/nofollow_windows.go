//go:build windows

package logging

// Windows has no O_NOFOLLOW; the Lstat check in SafeOpenFile still applies.
const osNoFollow = 0
