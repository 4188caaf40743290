package backend

import (
	"context"
	"io"
	"time"
)

const copyChunk = 32 * 1024

// copyWithContext copies src to dst, stopping when ctx is done.
func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, copyChunk)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		nr, rerr := src.Read(buf)
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			written += int64(nw)
			if werr != nil {
				return written, werr
			}
			if nw != nr {
				return written, io.ErrShortWrite
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

// progressWriter counts bytes and reports at most every reportEvery.
type progressWriter struct {
	total  int64
	done   int64
	last   time.Time
	report func(done, total int64)
}

const reportEvery = 100 * time.Millisecond

func (p *progressWriter) Write(b []byte) (int, error) {
	p.done += int64(len(b))
	if p.report != nil {
		if now := time.Now(); now.Sub(p.last) >= reportEvery {
			p.last = now
			p.report(p.done, p.total)
		}
	}
	return len(b), nil
}

// flush emits the final count.
func (p *progressWriter) flush() {
	if p.report != nil {
		p.report(p.done, p.total)
	}
}
