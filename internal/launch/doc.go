// Package launch opens external programs (editor, file manager, terminal) on
// repository paths.
//
// Launches are fire-and-forget: only spawn success or failure is reported and
// no output is captured. Command templates carry one {path} placeholder whose
// substitution is quoted for the target shell.
package launch
