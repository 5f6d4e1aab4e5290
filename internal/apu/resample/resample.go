// Package resample implements the fixed-ratio resampler spec.md §9
// calls out as a substitutable component: "the fixed-ratio FFT
// resampler is an external library in the source. A reimplementation
// is free to substitute any causal, fixed-ratio resampler meeting the
// contract". None of the retrieval pack's example repos, nor
// other_examples/, import a DSP/resampling library, so this is the one
// knowingly-standard-library piece of the domain stack (recorded in
// DESIGN.md): a linear-interpolation resampler, which is the simplest
// implementation satisfying that contract.
package resample

// Resampler converts a fixed-rate stream of stereo samples (the APU's
// internal 2^16 Hz generator) to an arbitrary host output rate using
// linear interpolation, carrying a fractional read-position across
// chunk boundaries so the output stays phase-continuous.
type Resampler struct {
	inRate  int
	outRate int

	pos     float64 // fractional read position into the pending input chunk
	prevL   float64
	prevR   float64
	hasPrev bool
}

// New builds a resampler converting from inRate to outRate. outRate
// <= 0 defaults to 48000, a conventional host audio rate.
func New(inRate, outRate int) *Resampler {
	if outRate <= 0 {
		outRate = 48000
	}
	if inRate <= 0 {
		inRate = 1 << 16
	}
	return &Resampler{inRate: inRate, outRate: outRate}
}

// Process consumes one chunk of interleaved stereo input samples
// (L,R,L,R,...) at the configured input rate and returns an
// interleaved stereo chunk at the output rate, sized per spec.md §9's
// contract: "chunk × host_rate / 2^16".
func (r *Resampler) Process(in []float32) []float32 {
	frames := len(in) / 2
	if frames == 0 {
		return nil
	}
	ratio := float64(r.inRate) / float64(r.outRate)
	outFrames := (frames * r.outRate) / r.inRate
	if outFrames == 0 {
		outFrames = 1
	}
	out := make([]float32, 0, outFrames*2)

	at := r.pos
	for len(out) < outFrames*2 {
		idx := int(at)
		frac := at - float64(idx)

		var l0, r0, l1, r1 float64
		if idx == 0 {
			if r.hasPrev {
				l0, r0 = r.prevL, r.prevR
			} else {
				l0 = float64(in[0])
				r0 = float64(in[1])
			}
		} else if idx-1 < frames {
			l0 = float64(in[(idx-1)*2])
			r0 = float64(in[(idx-1)*2+1])
		}
		if idx < frames {
			l1 = float64(in[idx*2])
			r1 = float64(in[idx*2+1])
		} else {
			l1, r1 = l0, r0
		}

		l := l0 + (l1-l0)*frac
		rr := r0 + (r1-r0)*frac
		out = append(out, float32(l), float32(rr))
		at += ratio
	}

	r.pos = at - float64(frames)
	if frames > 0 {
		r.prevL = float64(in[(frames-1)*2])
		r.prevR = float64(in[(frames-1)*2+1])
		r.hasPrev = true
	}
	return out
}
