package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// asyncWriter moves sink I/O off the logging goroutine. Lines are never
// dropped: a full queue makes Write block.
type asyncWriter struct {
	queue    chan []byte
	flushReq chan chan error
	done     chan struct{}
	once     sync.Once

	mu    sync.Mutex
	sinks []*bufio.Writer
	err   error
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &asyncWriter{
		queue:    make(chan []byte, 256),
		flushReq: make(chan chan error),
		done:     make(chan struct{}),
	}
	for _, out := range writers {
		if out != nil {
			w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
		}
	}
	go w.loop()
	return w
}

func (w *asyncWriter) loop() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.queue:
			if !ok {
				w.flush()
				return
			}
			w.write(line)
		case ack := <-w.flushReq:
			// drain what is already queued so Flush covers earlier writes
			for drained := false; !drained; {
				select {
				case line, ok := <-w.queue:
					if !ok {
						drained = true
						continue
					}
					w.write(line)
				default:
					drained = true
				}
			}
			ack <- w.flush()
		}
	}
}

// Write copies p and queues it.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.firstErr(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	w.queue <- append([]byte(nil), p...)
	return nil
}

// Flush blocks until everything queued so far reached the sinks.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	select {
	case w.flushReq <- ack:
		return <-ack
	case <-w.done:
		return w.firstErr()
	}
}

// Close drains the queue and returns the first write error.
func (w *asyncWriter) Close() error {
	w.once.Do(func() { close(w.queue) })
	<-w.done
	return w.firstErr()
}

func (w *asyncWriter) write(p []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, sink := range w.sinks {
		if _, err := sink.Write(p); err != nil {
			w.setErrLocked(err)
			return
		}
		if err := sink.Flush(); err != nil {
			w.setErrLocked(err)
			return
		}
	}
}

func (w *asyncWriter) flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for _, sink := range w.sinks {
		errs = append(errs, sink.Flush())
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) firstErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *asyncWriter) setErrLocked(err error) {
	if w.err == nil {
		w.err = err
	}
}
