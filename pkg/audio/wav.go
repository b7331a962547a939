package audio

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/oisee/oscgen/pkg/patch"
)

// WAV format constants for 8-bit unsigned mono PCM
const (
	WAVHeaderSize = 44

	wavFmtChunkSize  = 16
	wavFormatPCM     = 1
	wavChannels      = 1
	wavBitsPerSample = 8
	wavBlockAlign    = wavChannels * wavBitsPerSample / 8
)

// WAVHeader describes the canonical 44-byte header
type WAVHeader struct {
	SampleRate uint32
	DataSize   uint32 // Bytes of sample data that follow the header
}

// NewWAVHeader computes the header for a bounded run. The data size is the
// exact number of ticks the Generator will emit.
func NewWAVHeader(cfg *patch.RunConfig) (WAVHeader, error) {
	if cfg.SampleRate <= 0 {
		return WAVHeader{}, &MissingRateError{}
	}
	if !(cfg.Length > 0) || math.IsInf(cfg.Length, 0) {
		return WAVHeader{}, &InvalidLengthError{Length: cfg.Length, Reason: "container output needs a positive finite length"}
	}

	if int64(cfg.SampleRate) > math.MaxUint32 ||
		math.Round(float64(cfg.SampleRate)*cfg.Length)+36 > math.MaxUint32 {
		return WAVHeader{}, &InvalidLengthError{Length: cfg.Length, Reason: "data does not fit a 32-bit RIFF size"}
	}
	ticks := cfg.Ticks()

	return WAVHeader{
		SampleRate: uint32(cfg.SampleRate),
		DataSize:   uint32(ticks),
	}, nil
}

// MarshalBinary lays out the header byte for byte
func (h WAVHeader) MarshalBinary() ([]byte, error) {
	buf := make([]byte, WAVHeaderSize)
	le := binary.LittleEndian

	// RIFF header
	copy(buf[0:4], "RIFF")
	le.PutUint32(buf[4:8], h.DataSize+36)
	copy(buf[8:12], "WAVE")

	// fmt chunk
	copy(buf[12:16], "fmt ")
	le.PutUint32(buf[16:20], wavFmtChunkSize)
	le.PutUint16(buf[20:22], wavFormatPCM)
	le.PutUint16(buf[22:24], wavChannels)
	le.PutUint32(buf[24:28], h.SampleRate)
	le.PutUint32(buf[28:32], h.SampleRate*wavBlockAlign) // Byte rate
	le.PutUint16(buf[32:34], wavBlockAlign)
	le.PutUint16(buf[34:36], wavBitsPerSample)

	// data chunk header
	copy(buf[36:40], "data")
	le.PutUint32(buf[40:44], h.DataSize)

	return buf, nil
}

// WriteTo writes the header to w
func (h WAVHeader) WriteTo(w io.Writer) (int64, error) {
	buf, err := h.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(buf)
	return int64(n), err
}
