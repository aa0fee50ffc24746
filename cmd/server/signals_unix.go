//go:build !windows

package main

import "syscall"

func init() {
	shutdownSignals = append(shutdownSignals, syscall.SIGTERM)
	reloadSignals = append(reloadSignals, syscall.SIGHUP)
}
