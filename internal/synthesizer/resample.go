package synthesizer

// Resample converts audio to the target sample rate using linear
// interpolation. Good enough for speech; playback assumes one fixed rate so
// every engine output passes through here when rates differ.
func Resample(in *Audio, targetRate int) *Audio {
	if in == nil || targetRate <= 0 || in.SampleRate == targetRate || len(in.Samples) == 0 {
		return in
	}

	channels := in.Channels
	if channels <= 0 {
		channels = 1
	}

	inFrames := len(in.Samples) / channels
	if inFrames < 2 {
		return &Audio{Samples: in.Samples, SampleRate: targetRate, Channels: channels}
	}

	ratio := float64(in.SampleRate) / float64(targetRate)
	outFrames := int(float64(inFrames) / ratio)
	if outFrames < 1 {
		outFrames = 1
	}

	out := make([]int16, outFrames*channels)
	for f := 0; f < outFrames; f++ {
		pos := float64(f) * ratio
		i := int(pos)
		frac := pos - float64(i)
		if i >= inFrames-1 {
			i = inFrames - 2
			frac = 1
		}
		for ch := 0; ch < channels; ch++ {
			a := float64(in.Samples[i*channels+ch])
			b := float64(in.Samples[(i+1)*channels+ch])
			out[f*channels+ch] = int16(a + (b-a)*frac)
		}
	}

	return &Audio{Samples: out, SampleRate: targetRate, Channels: channels}
}

// ConvertChannels converts audio to the target channel count. Each frame is
// averaged into one sample, which is then written to every target channel;
// that downmixes multi-channel engine output and duplicates mono upward.
func ConvertChannels(in *Audio, target int) *Audio {
	if in == nil || target <= 0 || in.Channels == target || len(in.Samples) == 0 {
		return in
	}

	src := in.Channels
	if src <= 0 {
		src = 1
	}

	frames := len(in.Samples) / src
	out := make([]int16, frames*target)
	for f := 0; f < frames; f++ {
		var sum int
		for ch := 0; ch < src; ch++ {
			sum += int(in.Samples[f*src+ch])
		}
		avg := int16(sum / src)
		for ch := 0; ch < target; ch++ {
			out[f*target+ch] = avg
		}
	}

	return &Audio{Samples: out, SampleRate: in.SampleRate, Channels: target}
}
