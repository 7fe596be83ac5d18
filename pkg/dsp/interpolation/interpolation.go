// Package interpolation provides the fractional-sample interpolation
// kernels the supplier chain's rate and tempo converters pull samples
// through.
package interpolation

// Linear interpolates between two samples. frac is the fractional
// position between y0 and y1, in [0, 1).
func Linear(y0, y1, frac float32) float32 {
	return y0 + (y1-y0)*frac
}

// Cubic performs 4-point Catmull-Rom cubic interpolation. frac is the
// fractional position between y1 and y2, in [0, 1).
func Cubic(y0, y1, y2, y3, frac float32) float32 {
	c0 := y1
	c1 := 0.5 * (y2 - y0)
	c2 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	c3 := 0.5 * (y3 - y0 + 3*(y1-y2))

	return ((c3*frac+c2)*frac+c1)*frac + c0
}
