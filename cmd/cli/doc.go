// Package cli constructs the gitfleet command-line interface, wiring the
// Cobra command hierarchy, configuration loader, structured logging, and the
// repository engine. It exposes helpers to build reusable application
// instances and to execute the default command set as a reusable library.
package cli
