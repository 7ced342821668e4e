// Package external declares the interfaces the core consumes from the
// acoustic front-end, the LLM reasoner, and the TTS provider (spec §6):
// out-of-scope collaborators specified only by the interface they satisfy.
// Concrete network clients live in subpackages (e.g. [external/openai]);
// this package also carries lightweight mocks for tests.
package external

import (
	"context"

	"github.com/melpes/voicekiosk/pkg/types"
)

// Transcriber is the acoustic front-end collaborator: it turns one
// recorded audio clip into a transcript. Unlike the teacher's streaming
// STT session abstraction, the kiosk pipeline is request/response — a
// client uploads a whole WAV clip per turn, so a single blocking call
// suffices (spec §5's suspension-point list calls this out as "network
// call to the acoustic front-end", not a stream).
type Transcriber interface {
	// Transcribe decodes audio (raw bytes of a WAV clip) and returns the
	// best transcript. format is the declared content type (e.g.
	// "audio/wav"), passed through for providers that branch on it.
	Transcribe(ctx context.Context, audio []byte, format string) (types.Transcript, error)
}
