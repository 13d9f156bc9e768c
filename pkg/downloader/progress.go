package downloader

import (
	"io"
	"path"
	"sync"

	"github.com/schollz/progressbar/v3"
)

type progressTracker struct {
	lock sync.Mutex
}

type progressReader struct {
	io.Reader
	stream io.ReadCloser
	bar    *progressbar.ProgressBar
}

func (p *progressTracker) TrackProgress(src string, currentSize, totalSize int64, stream io.ReadCloser) io.ReadCloser {
	p.lock.Lock()
	defer p.lock.Unlock()

	bar := progressbar.DefaultBytes(totalSize, path.Base(src))
	_ = bar.Set64(currentSize)
	return &progressReader{
		Reader: io.TeeReader(stream, bar),
		stream: stream,
		bar:    bar,
	}
}

func (p *progressReader) Close() error {
	_ = p.bar.Finish()
	return p.stream.Close()
}
