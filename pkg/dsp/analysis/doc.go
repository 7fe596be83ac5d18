// Package analysis provides level metering for live-performance
// monitoring: a peak meter with hold and decay, and an RMS meter over
// a rolling window, both designed for per-block updates with no
// allocation on the hot path.
package analysis
