// Package analysis derives composite keyword metrics from extracted provider
// data. Every function is pure: identical input yields identical output.
package analysis
