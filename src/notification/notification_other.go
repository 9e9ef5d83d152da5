//go:build !windows

package notification

func showMessageBox(string, string) {}
