// Package logx is a small structured-logging facade over zerolog.
//
// Components receive a Logger tagged with a "comp" field and never touch
// zerolog directly. The Service owns the sinks (console, file) and supports
// live reconfiguration via Apply(); loggers derived from it stay valid across
// reconfigurations.
package logx
