// Package environ dispatches repository operations to their execution environment.
//
// Every repository lives either in the native host environment or inside an
// isolated guest distribution reached through a bridging command. The
// EnvironmentInvoker capability interface hides that split: callers run git
// commands, probe paths, and discover repositories without knowing which side
// of the bridge they touch. Environment dispatch lives here and nowhere else.
package environ
