package main

import "os"

// shutdownSignals lists the OS signals that trigger graceful shutdown.
// os.Interrupt is the portable baseline; signals_unix.go appends SIGTERM.
var shutdownSignals = []os.Signal{os.Interrupt}

// reloadSignals re-read the target configuration. Empty on platforms
// without SIGHUP.
var reloadSignals []os.Signal
