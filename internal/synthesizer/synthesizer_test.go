package synthesizer

import (
	"context"
	"encoding/binary"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// buildWAV assembles a minimal RIFF/WAVE file around the given samples.
func buildWAV(t *testing.T, samples []int16, sampleRate, channels int) []byte {
	t.Helper()

	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(s))
	}

	var buf []byte
	buf = append(buf, []byte("RIFF")...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(36+len(pcm)))
	buf = append(buf, []byte("WAVE")...)

	buf = append(buf, []byte("fmt ")...)
	buf = binary.LittleEndian.AppendUint32(buf, 16)
	buf = binary.LittleEndian.AppendUint16(buf, 1) // PCM
	buf = binary.LittleEndian.AppendUint16(buf, uint16(channels))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(sampleRate))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(sampleRate*channels*2))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(channels*2))
	buf = binary.LittleEndian.AppendUint16(buf, 16)

	buf = append(buf, []byte("data")...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(pcm)))
	buf = append(buf, pcm...)
	return buf
}

func sineWave(frames, sampleRate int, freq float64) []int16 {
	out := make([]int16, frames)
	for i := range out {
		out[i] = int16(10000 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}

func TestDecodeWAV(t *testing.T) {
	samples := []int16{0, 100, -100, 32767, -32768}
	wav := buildWAV(t, samples, 22050, 1)

	audio, err := decodeWAV(wav)
	if err != nil {
		t.Fatalf("decodeWAV: %v", err)
	}
	if audio.SampleRate != 22050 || audio.Channels != 1 {
		t.Errorf("header = %d Hz, %d ch", audio.SampleRate, audio.Channels)
	}
	if len(audio.Samples) != len(samples) {
		t.Fatalf("samples = %d, want %d", len(audio.Samples), len(samples))
	}
	for i, s := range samples {
		if audio.Samples[i] != s {
			t.Errorf("sample %d = %d, want %d", i, audio.Samples[i], s)
		}
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	cases := map[string][]byte{
		"empty":      {},
		"not riff":   []byte("this is definitely not audio data!!"),
		"no chunks":  []byte("RIFF\x00\x00\x00\x00WAVE"),
		"mp3 header": {0xFF, 0xFB, 0x90, 0x00, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
	}
	for name, data := range cases {
		if _, err := decodeWAV(data); err == nil {
			t.Errorf("%s: decodeWAV accepted invalid input", name)
		}
	}
}

func TestDecodeWAVOddChunkAlignment(t *testing.T) {
	// A 3-byte LIST chunk before fmt must be skipped with word alignment.
	samples := []int16{1, 2, 3}
	wav := buildWAV(t, samples, 16000, 1)

	var withList []byte
	withList = append(withList, wav[:12]...)
	withList = append(withList, []byte("LIST")...)
	withList = binary.LittleEndian.AppendUint32(withList, 3)
	withList = append(withList, 'x', 'y', 'z', 0) // body + pad byte
	withList = append(withList, wav[12:]...)

	audio, err := decodeWAV(withList)
	if err != nil {
		t.Fatalf("decodeWAV with LIST chunk: %v", err)
	}
	if len(audio.Samples) != 3 {
		t.Errorf("samples = %d, want 3", len(audio.Samples))
	}
}

func TestResample(t *testing.T) {
	in := &Audio{Samples: sineWave(44100, 44100, 440), SampleRate: 44100, Channels: 1}

	out := Resample(in, 22050)
	if out.SampleRate != 22050 {
		t.Errorf("rate = %d, want 22050", out.SampleRate)
	}

	// Halving the rate should roughly halve the frame count and keep the
	// duration.
	if got, want := len(out.Samples), 22050; got < want-10 || got > want+10 {
		t.Errorf("frames = %d, want about %d", got, want)
	}
	if d := out.Duration() - in.Duration(); d > 5*time.Millisecond || d < -5*time.Millisecond {
		t.Errorf("duration drifted by %v", d)
	}
}

func TestResampleNoopCases(t *testing.T) {
	in := &Audio{Samples: []int16{1, 2, 3}, SampleRate: 22050, Channels: 1}

	if out := Resample(in, 22050); out != in {
		t.Errorf("same-rate resample should return input unchanged")
	}
	if out := Resample(nil, 22050); out != nil {
		t.Errorf("nil input should stay nil")
	}
}

func TestConvertChannels(t *testing.T) {
	stereo := &Audio{Samples: []int16{100, 200, -100, -200}, SampleRate: 22050, Channels: 2}

	mono := ConvertChannels(stereo, 1)
	if mono.Channels != 1 || len(mono.Samples) != 2 {
		t.Fatalf("mono = %dch %d samples", mono.Channels, len(mono.Samples))
	}
	if mono.Samples[0] != 150 || mono.Samples[1] != -150 {
		t.Errorf("downmix = %v, want frame averages [150 -150]", mono.Samples)
	}

	up := ConvertChannels(mono, 2)
	if up.Channels != 2 || len(up.Samples) != 4 {
		t.Fatalf("upmix = %dch %d samples", up.Channels, len(up.Samples))
	}
	if up.Samples[0] != 150 || up.Samples[1] != 150 {
		t.Errorf("upmix = %v, want duplicated [150 150 ...]", up.Samples)
	}

	if out := ConvertChannels(stereo, 2); out != stereo {
		t.Errorf("same channel count should return input unchanged")
	}
	if out := ConvertChannels(nil, 1); out != nil {
		t.Errorf("nil input should stay nil")
	}
}

func TestAudioPCMBytes(t *testing.T) {
	a := &Audio{Samples: []int16{0x0102, -2}, SampleRate: 22050, Channels: 1}
	got := a.PCMBytes()
	want := []byte{0x02, 0x01, 0xFE, 0xFF}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("PCMBytes = %v, want %v", got, want)
		}
	}
}

func TestCoquiSynthesize(t *testing.T) {
	native := 44100
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tts" {
			t.Errorf("path = %s, want /api/tts", r.URL.Path)
		}
		if got := r.URL.Query().Get("text"); got != "hola mundo" {
			t.Errorf("text = %q", got)
		}
		if got := r.URL.Query().Get("speaker_id"); got != "p225" {
			t.Errorf("speaker_id = %q", got)
		}
		w.Header().Set("Content-Type", "audio/wav")
		w.Write(buildWAV(t, sineWave(native/2, native, 220), native, 1))
	}))
	defer srv.Close()

	adapter := NewCoquiAdapter(CoquiConfig{
		BaseURL:    srv.URL,
		SpeakerID:  "p225",
		OutputRate: 22050,
	})

	audio, err := adapter.Synthesize(context.Background(), "hola mundo")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if audio.SampleRate != 22050 {
		t.Errorf("rate = %d, want resampled to 22050", audio.SampleRate)
	}
	if audio.Duration() < 400*time.Millisecond || audio.Duration() > 600*time.Millisecond {
		t.Errorf("duration = %v, want about 500ms", audio.Duration())
	}
}

func TestCoquiSynthesizeDownmixesStereo(t *testing.T) {
	frames := 1000
	stereo := make([]int16, frames*2)
	for f := 0; f < frames; f++ {
		stereo[2*f] = 1000
		stereo[2*f+1] = 3000
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/wav")
		w.Write(buildWAV(t, stereo, 22050, 2))
	}))
	defer srv.Close()

	adapter := NewCoquiAdapter(CoquiConfig{
		BaseURL:        srv.URL,
		OutputRate:     22050,
		OutputChannels: 1,
	})

	audio, err := adapter.Synthesize(context.Background(), "hola")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if audio.Channels != 1 {
		t.Errorf("channels = %d, want mono for playback", audio.Channels)
	}
	if len(audio.Samples) != frames {
		t.Errorf("samples = %d, want %d frames", len(audio.Samples), frames)
	}
	if audio.Samples[0] != 2000 {
		t.Errorf("sample 0 = %d, want channel average 2000", audio.Samples[0])
	}
}

func TestCoquiServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	adapter := NewCoquiAdapter(CoquiConfig{BaseURL: srv.URL})
	_, err := adapter.Synthesize(context.Background(), "hola")
	if !IsEngineError(err) {
		t.Errorf("err = %v, want EngineError", err)
	}
}

func TestCoquiRejectsNonWAV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	adapter := NewCoquiAdapter(CoquiConfig{BaseURL: srv.URL})
	_, err := adapter.Synthesize(context.Background(), "hola")
	if !IsEngineError(err) {
		t.Errorf("err = %v, want EngineError", err)
	}
}

func TestCoquiEmptyText(t *testing.T) {
	adapter := NewCoquiAdapter(CoquiConfig{})
	if _, err := adapter.Synthesize(context.Background(), "  "); !IsEngineError(err) {
		t.Errorf("empty text should be an EngineError, got %v", err)
	}
}
