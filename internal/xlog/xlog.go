// Package xlog is a minimal subsystem-tagged wrapper around the standard
// logger. It exists so packet-level tracing can be switched on per PDU type
// without reaching for a logging framework the rest of the module doesn't
// use.
package xlog

import "log"

// Verbose gates Debugf output globally; cmd/isisd sets this from its -v
// flag before starting anything else.
var Verbose = false

// tags enumerates the subsystem tags enabled even when Verbose is false,
// mirroring pyisis's PKTDBGTYPE: packet tracing for a handful of PDU types
// is noisy enough to want independent of the blanket verbose switch.
var tags = map[string]bool{}

// EnableTag turns on Debugf output for tag regardless of Verbose.
func EnableTag(tag string) {
	tags[tag] = true
}

// Debugf logs a tagged debug line if Verbose is set or tag was explicitly
// enabled via EnableTag.
func Debugf(tag, format string, args ...interface{}) {
	if !Verbose && !tags[tag] {
		return
	}
	log.Printf("["+tag+"] "+format, args...)
}
