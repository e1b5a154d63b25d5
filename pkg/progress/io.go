package progress

import "io"

type reader struct {
	r  io.Reader
	pb *ProgressBar
}

// WrapReader returns a reader that advances the bar by every byte read.
func (pb *ProgressBar) WrapReader(r io.Reader) io.Reader {
	return &reader{r: r, pb: pb}
}

func (r *reader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.pb.Inc(uint64(n))
	}
	return n, err
}

type writer struct {
	w  io.Writer
	pb *ProgressBar
}

// WrapWriter returns a writer that advances the bar by every byte written.
func (pb *ProgressBar) WrapWriter(w io.Writer) io.Writer {
	return &writer{w: w, pb: pb}
}

func (w *writer) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	if n > 0 {
		w.pb.Inc(uint64(n))
	}
	return n, err
}
