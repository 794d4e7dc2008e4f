package pulse

// dcRemover strips the DC component of a PPG signal.
type dcRemover struct {
	alpha float64
	dcw   float64
}

func (f *dcRemover) step(x float64) float64 {
	olddcw := f.dcw
	f.dcw = x + f.alpha*f.dcw
	return f.dcw - olddcw
}

func (f *dcRemover) dc() float64 {
	return f.dcw * (1 - f.alpha)
}

// lowPass is a first order Butterworth low-pass filter,
// fs=100Hz, fc=6Hz.
type lowPass struct {
	v [2]float64
}

func (f *lowPass) step(x float64) float64 {
	f.v[0] = f.v[1]
	f.v[1] = 2.452372752527856026e-1*x + 0.50952544949442879485*f.v[0]
	return f.v[0] + f.v[1]
}
