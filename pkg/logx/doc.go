// Package logx is the structured logger shared by the rmnotify daemon and CLI.
//
// Logger is a small value type over zerolog. Loggers handed out by a Service
// follow its sinks across Apply calls, so components keep the logger they
// were built with when the config file is reloaded.
package logx
