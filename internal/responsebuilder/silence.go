package responsebuilder

import (
	"bytes"
	"encoding/binary"
)

const (
	silenceSampleRate  = 16000
	silenceCharsPerSec = 8.0
	silenceMaxDuration = 10.0
)

// silentWAV synthesizes a silent 16-bit mono PCM WAV clip whose duration is
// proportional to the rune length of text, capped at 10 seconds (spec
// §4.6: "A TTS failure degrades to a synthesized silent WAV placeholder of
// length proportional to text"). A floor of 0.5s keeps very short replies
// from producing a zero-length (and thus unplayable) clip.
func silentWAV(text string) []byte {
	seconds := float64(len([]rune(text))) / silenceCharsPerSec
	if seconds > silenceMaxDuration {
		seconds = silenceMaxDuration
	}
	if seconds < 0.5 {
		seconds = 0.5
	}

	numSamples := int(seconds * silenceSampleRate)
	dataSize := numSamples * 2 // 16-bit mono

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	writeUint32(&buf, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	writeUint32(&buf, 16)          // PCM fmt chunk size
	writeUint16(&buf, 1)           // PCM
	writeUint16(&buf, 1)           // mono
	writeUint32(&buf, silenceSampleRate)
	writeUint32(&buf, silenceSampleRate*2) // byte rate
	writeUint16(&buf, 2)                   // block align
	writeUint16(&buf, 16)                  // bits per sample

	buf.WriteString("data")
	writeUint32(&buf, uint32(dataSize))
	buf.Write(make([]byte, dataSize))

	return buf.Bytes()
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}
