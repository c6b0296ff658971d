//go:build linux

package capture

import "golang.org/x/sys/unix"

// dupTo duplicates oldfd onto newfd. Dup3 because linux/arm64 has no dup2
// syscall.
func dupTo(oldfd, newfd int) error {
	return unix.Dup3(oldfd, newfd, 0)
}
