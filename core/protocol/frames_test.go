package protocol

import (
	"errors"
	"io"
	"runtime"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectFrames(t *testing.T, r io.Reader) ([]string, error) {
	t.Helper()

	var frames []string
	for payload, err := range Frames(r) {
		if err != nil {
			return frames, err
		}
		frames = append(frames, string(payload))
	}
	return frames, nil
}

func TestFramesAcrossReadBoundaries(t *testing.T) {
	stream := "data: {\"type\":\"RUN_STARTED\"}\n\n" +
		"data: {\"type\":\"TEXT_MESSAGE_CONTENT\",\"messageId\":\"m1\",\"delta\":\"Hi\"}\n\n"

	frames, err := collectFrames(t, iotest.OneByteReader(strings.NewReader(stream)))

	require.NoError(t, err)
	assert.Equal(t, []string{
		`{"type":"RUN_STARTED"}`,
		`{"type":"TEXT_MESSAGE_CONTENT","messageId":"m1","delta":"Hi"}`,
	}, frames)
}

func TestFramesIgnoresNonMatchingLines(t *testing.T) {
	stream := ": keep-alive\n" +
		"event: message\n" +
		"id: 7\n" +
		"\n" +
		"retry: 1000\n" +
		"data: {\"type\":\"RUN_FINISHED\"}\r\n" +
		"data:\n" +
		"\n"

	frames, err := collectFrames(t, strings.NewReader(stream))

	require.NoError(t, err)
	assert.Equal(t, []string{`{"type":"RUN_FINISHED"}`}, frames)
}

func TestFramesAcceptsPrefixWithoutSpace(t *testing.T) {
	frames, err := collectFrames(t, strings.NewReader("data:{\"type\":\"RUN_STARTED\"}\n"))

	require.NoError(t, err)
	assert.Equal(t, []string{`{"type":"RUN_STARTED"}`}, frames)
}

func TestFramesStopAtEndMessage(t *testing.T) {
	stream := "data: {\"type\":\"RUN_STARTED\"}\n\n" +
		"data: [DONE]\n\n" +
		"data: {\"type\":\"RUN_FINISHED\"}\n\n"

	frames, err := collectFrames(t, strings.NewReader(stream))

	require.NoError(t, err)
	assert.Equal(t, []string{`{"type":"RUN_STARTED"}`}, frames)
}

func TestFramesFlushesCompleteTrailingFrame(t *testing.T) {
	frames, err := collectFrames(t, strings.NewReader("data: {\"type\":\"RUN_STARTED\"}\n\ndata: {\"type\":\"RUN_FINISHED\"}"))

	require.NoError(t, err)
	assert.Equal(t, []string{`{"type":"RUN_STARTED"}`, `{"type":"RUN_FINISHED"}`}, frames)
}

func TestFramesDiscardsIncompleteTrailingFrame(t *testing.T) {
	frames, err := collectFrames(t, strings.NewReader("data: {\"type\":\"RUN_STARTED\"}\n\ndata: {\"type\":\"TEXT_MESS"))

	require.NoError(t, err)
	assert.Equal(t, []string{`{"type":"RUN_STARTED"}`}, frames)
}

func TestFramesYieldsReadErrorAndDiscardsPartialLine(t *testing.T) {
	errConnectionReset := errors.New("connection reset")
	r := io.MultiReader(
		strings.NewReader("data: {\"type\":\"RUN_STARTED\"}\n\ndata: {\"type\":\"RUN_FINISHED\"}"),
		iotest.ErrReader(errConnectionReset),
	)

	frames, err := collectFrames(t, r)

	require.ErrorIs(t, err, errConnectionReset)
	assert.Equal(t, []string{`{"type":"RUN_STARTED"}`}, frames)
}

func TestFramesStopWhenConsumerStops(t *testing.T) {
	stream := strings.Repeat("data: {\"type\":\"RUN_STARTED\"}\n\n", 5)

	count := 0
	for range Frames(strings.NewReader(stream)) {
		count++
		if count == 2 {
			break
		}
	}

	assert.Equal(t, 2, count)
}

func TestFramesSkipsOversizedFrames(t *testing.T) {
	oversized := "data: \"" + strings.Repeat("x", MaxFrameSize) + "\"\n\n"
	stream := oversized + "data: {\"type\":\"RUN_FINISHED\"}\n\n"

	frames, err := collectFrames(t, strings.NewReader(stream))

	require.NoError(t, err)
	assert.Equal(t, []string{`{"type":"RUN_FINISHED"}`}, frames)
}

// fillReader produces an endless run of a single byte.
type fillReader byte

func (b fillReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(b)
	}
	return len(p), nil
}

func TestFramesBoundsMemoryOfOversizedLines(t *testing.T) {
	const lineSize = 32 * MaxFrameSize
	stream := io.MultiReader(
		strings.NewReader("data: \""),
		io.LimitReader(fillReader('x'), lineSize),
		strings.NewReader("\"\n\ndata: {\"type\":\"RUN_FINISHED\"}\n\n"),
	)

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	frames, err := collectFrames(t, stream)
	runtime.ReadMemStats(&after)

	require.NoError(t, err)
	assert.Equal(t, []string{`{"type":"RUN_FINISHED"}`}, frames)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(8*MaxFrameSize))
}

func TestFramesDropsOversizedUnterminatedLine(t *testing.T) {
	stream := io.MultiReader(
		strings.NewReader("data: {\"type\":\"RUN_FINISHED\"}\n\ndata: \""),
		io.LimitReader(fillReader('x'), 2*MaxFrameSize),
	)

	frames, err := collectFrames(t, stream)

	require.NoError(t, err)
	assert.Equal(t, []string{`{"type":"RUN_FINISHED"}`}, frames)
}
