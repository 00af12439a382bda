// Package version reports the nsolver build. Release builds set Version,
// Commit and Date through -ldflags; other builds fall back to the module and
// VCS stamps recorded in runtime/debug.BuildInfo.
package version
