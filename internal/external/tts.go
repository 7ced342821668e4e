package external

import "context"

// SynthesisRequest carries the text and voice configuration for one TTS
// call. VoiceCfg mirrors the fields [internal/ttscache.Key] fingerprints,
// so a Response Builder can hash the same map it passes here.
type SynthesisRequest struct {
	Text     string
	VoiceCfg map[string]string
}

// Synthesizer is the external TTS provider collaborator (spec §2 "TTS
// provider"). Unlike the teacher's chunk-streaming Provider (built for a
// live voice chat pipeline), the kiosk synthesizes one complete reply per
// turn and caches the resulting bytes, so a single blocking call that
// returns the whole clip is the natural shape here.
type Synthesizer interface {
	// Synthesize renders req.Text as audio and returns the encoded bytes
	// (format is provider-determined, typically WAV) along with the
	// content type to report to clients.
	Synthesize(ctx context.Context, req SynthesisRequest) (audio []byte, contentType string, err error)
}
