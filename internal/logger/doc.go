// Package logger wraps zap with a process-wide sugared logger and helpers that
// read the logger from a context.Context.
//
// Callers attach names and key-value pairs with WithName and WithKV, then log
// through DebugKV, InfoKV, WarnKV and ErrorKV so every record carries its scope.
package logger
