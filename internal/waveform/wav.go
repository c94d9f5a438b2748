package waveform

import (
	"encoding/binary"
	"os"
)

// EncodeWAV writes samples as a mono 16kHz signed 16-bit PCM WAV file.
// Used to hand an in-memory waveform to tools that only accept files.
func EncodeWAV(path string, samples []float32) error {
	pcm := float32ToPCM16(samples)

	const (
		channels      = 1
		bitsPerSample = 16
	)
	byteRate := SampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8
	dataSize := len(pcm)

	header := make([]byte, 0, 44)
	header = append(header, []byte("RIFF")...)
	header = binary.LittleEndian.AppendUint32(header, uint32(36+dataSize))
	header = append(header, []byte("WAVE")...)
	header = append(header, []byte("fmt ")...)
	header = binary.LittleEndian.AppendUint32(header, 16)
	header = binary.LittleEndian.AppendUint16(header, 1) // PCM
	header = binary.LittleEndian.AppendUint16(header, channels)
	header = binary.LittleEndian.AppendUint32(header, SampleRate)
	header = binary.LittleEndian.AppendUint32(header, uint32(byteRate))
	header = binary.LittleEndian.AppendUint16(header, uint16(blockAlign))
	header = binary.LittleEndian.AppendUint16(header, bitsPerSample)
	header = append(header, []byte("data")...)
	header = binary.LittleEndian.AppendUint32(header, uint32(dataSize))

	return os.WriteFile(path, append(header, pcm...), 0o644)
}
