// Package notification reports startup problems that happen before any window exists.
package notification

import "log"

// ShowBlockingError shows a modal message box on Windows and waits for it to be dismissed.
// Elsewhere it only logs.
func ShowBlockingError(title, message string) {
	log.Printf("%s: %s", title, message)
	showMessageBox(title, message)
}
