//go:build windows

package main

import (
	"os"
	"os/signal"
)

// setupSignalHandling stops the watch command on Ctrl+C
func setupSignalHandling(sigChan chan os.Signal) {
	signal.Notify(sigChan, os.Interrupt)
}
