package audio

import (
	"bufio"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"
)

// RealtimeOutput plays the sample stream on the system audio device. It is an
// io.WriteCloser sink for Generator.Run; oto pulls the written bytes through
// a pipe.
type RealtimeOutput struct {
	otoCtx    *oto.Context
	otoPlayer *oto.Player
	pipeR     *io.PipeReader
	pipeW     *io.PipeWriter
	buf       *bufio.Writer
}

// NewRealtimeOutput opens the audio device for unsigned 8-bit mono samples
func NewRealtimeOutput(sampleRate int) (*RealtimeOutput, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1, // Mono
		Format:       oto.FormatUnsignedInt8,
	}

	otoCtx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	pr, pw := io.Pipe()
	rt := &RealtimeOutput{
		otoCtx: otoCtx,
		pipeR:  pr,
		pipeW:  pw,
		buf:    bufio.NewWriterSize(pw, 512),
	}

	rt.otoPlayer = otoCtx.NewPlayer(pr)
	rt.otoPlayer.SetBufferSize(sampleRate / 10) // 100ms buffer
	rt.otoPlayer.Play()

	return rt, nil
}

// Write queues samples for playback. It blocks while the device buffer is full.
func (rt *RealtimeOutput) Write(p []byte) (int, error) {
	return rt.buf.Write(p)
}

// Close flushes pending samples, waits for them to play and releases the player
func (rt *RealtimeOutput) Close() error {
	flushErr := rt.buf.Flush()
	rt.pipeW.Close()

	for rt.otoPlayer.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}
	rt.pipeR.Close()
	if err := rt.otoPlayer.Close(); err != nil {
		return err
	}
	return flushErr
}
