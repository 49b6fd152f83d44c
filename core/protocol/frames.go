package protocol

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
)

const (
	chunkPrefix = "data:"
	endMessage  = "[DONE]"

	// MaxFrameSize is the largest line accepted as a frame. Longer lines are
	// skipped.
	MaxFrameSize = 4 << 20

	readBufferSize = 64 << 10
	// maxLineSize leaves room for the record prefix, padding and the line
	// terminator around a frame of MaxFrameSize.
	maxLineSize = MaxFrameSize + 64
)

// Frames returns a lazy sequence of frame payloads read from r.
//
// Only lines carrying the data record prefix are frames; every other line is
// ignored. A frame is yielded once its line terminator has been read, so
// frames may span any number of underlying reads. The end of stream sentinel
// stops the sequence without yielding a frame.
//
// On a clean end of input an unterminated trailing line is flushed only if it
// holds a complete JSON document. Any other read error is yielded once as the
// last element and the partially buffered line is discarded.
//
// Each ranging over the returned sequence starts with fresh buffering state,
// but the reader itself is consumed, so ranging twice does not replay frames.
func Frames(r io.Reader) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		reader := bufio.NewReaderSize(r, readBufferSize)
		var (
			line []byte
			// skipping is set once line outgrew maxLineSize. The rest of the
			// line is read and dropped without being kept.
			skipping bool
		)
		for {
			chunk, err := reader.ReadSlice('\n')
			if !skipping {
				if len(line)+len(chunk) > maxLineSize {
					skipping = true
					if bytes.HasPrefix(line, []byte(chunkPrefix)) || (len(line) == 0 && bytes.HasPrefix(chunk, []byte(chunkPrefix))) {
						skipOversized(len(line) + len(chunk))
					}
					line = nil
				} else {
					line = append(line, chunk...)
				}
			}

			switch {
			case errors.Is(err, bufio.ErrBufferFull):
				continue
			case errors.Is(err, io.EOF):
				if skipping {
					return
				}
				payload, ok := framePayload(line)
				if ok && !isEndMessage(payload) && len(payload) <= MaxFrameSize && json.Valid(payload) {
					yield(payload, nil)
				}
				return
			case err != nil:
				yield(nil, err)
				return
			}

			current := line
			line = nil
			if skipping {
				skipping = false
				continue
			}

			payload, ok := framePayload(current)
			if !ok {
				continue
			}
			if isEndMessage(payload) {
				return
			}
			if len(payload) > MaxFrameSize {
				skipOversized(len(payload))
				continue
			}
			if !yield(payload, nil) {
				return
			}
		}
	}
}

func skipOversized(size int) {
	logger.Warn("skipping oversized frame", "size_at_least", size, "limit", MaxFrameSize)
	framesSkipped.Add(context.Background(), 1)
}

func framePayload(line []byte) ([]byte, bool) {
	line = bytes.TrimRight(line, "\r\n")
	if !bytes.HasPrefix(line, []byte(chunkPrefix)) {
		return nil, false
	}

	payload := bytes.TrimSpace(line[len(chunkPrefix):])
	if len(payload) == 0 {
		return nil, false
	}
	return payload, true
}

func isEndMessage(payload []byte) bool {
	return string(payload) == endMessage
}
