package serial

import "bytes"

// maxFrameSize bounds a partial line kept across reads.
const maxFrameSize = 64 * 1024

// lineFramer reassembles newline-terminated frames from arbitrary read
// chunks. It is owned by the reader goroutine and is not safe for
// concurrent use.
type lineFramer struct {
	buf   []byte
	limit int
}

func newLineFramer(limit int) *lineFramer {
	if limit <= 0 {
		limit = maxFrameSize
	}
	return &lineFramer{limit: limit}
}

// Push appends chunk and returns every complete line it closes, without
// terminators. A trailing \r is stripped and blank lines are skipped.
// Returned slices are copies and stay valid after the next Push.
func (f *lineFramer) Push(chunk []byte) [][]byte {
	f.buf = append(f.buf, chunk...)

	var lines [][]byte
	for {
		i := bytes.IndexByte(f.buf, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimSuffix(f.buf[:i], []byte{'\r'})
		if len(bytes.TrimSpace(line)) > 0 {
			lines = append(lines, bytes.Clone(line))
		}
		f.buf = f.buf[i+1:]
	}

	if len(f.buf) > f.limit {
		// no terminator in sight; drop the garbage and resync on the next \n
		f.buf = nil
	}
	if len(f.buf) == 0 {
		f.buf = nil
	}

	return lines
}

// Pending returns the number of buffered bytes of an unfinished frame.
func (f *lineFramer) Pending() int {
	return len(f.buf)
}
