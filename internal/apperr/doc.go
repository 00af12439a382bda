// Package apperr defines shared error sentinels and the probe failure taxonomy
// for nsolver. It is a leaf package with no internal imports, allowing any
// package (including low-level infrastructure like resolver) to use the
// sentinels without creating import cycles.
package apperr
