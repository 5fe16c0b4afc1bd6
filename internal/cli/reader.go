package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// ErrInputCanceled is returned when a prompt is abandoned because its context ended.
var ErrInputCanceled = errors.New("input canceled")

// PromptReader reads answers to interactive prompts. Reads give up when the
// context ends; a read already blocked on the input finishes in the background.
type PromptReader struct {
	reader *bufio.Reader
	tty    *os.File
	mu     sync.Mutex
}

// NewPromptReader wraps in. When in is a terminal, secrets are read without echo.
func NewPromptReader(in io.Reader) *PromptReader {
	if in == nil {
		panic("reader cannot be nil")
	}

	r := &PromptReader{reader: bufio.NewReader(in)}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.tty = f
	}
	return r
}

// IsTerminal reports whether input comes from a terminal.
func (r *PromptReader) IsTerminal() bool {
	return r.tty != nil
}

// ReadLine reads one line with surrounding whitespace removed.
func (r *PromptReader) ReadLine(ctx context.Context) (string, error) {
	line, err := r.readRaw(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ReadSecret reads one line, hiding it on a terminal. Only the line ending
// is removed.
func (r *PromptReader) ReadSecret(ctx context.Context) (string, error) {
	if r.tty == nil {
		return r.readRaw(ctx)
	}

	fd := int(r.tty.Fd())
	state, err := term.GetState(fd)
	if err != nil {
		return "", err
	}

	secret, err := r.await(ctx, func() (string, error) {
		b, err := term.ReadPassword(fd)
		return string(b), err
	})
	if errors.Is(err, ErrInputCanceled) {
		_ = term.Restore(fd, state)
	}
	return secret, err
}

func (r *PromptReader) readRaw(ctx context.Context) (string, error) {
	line, err := r.await(ctx, func() (string, error) {
		return r.reader.ReadString('\n')
	})
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (r *PromptReader) await(ctx context.Context, read func() (string, error)) (string, error) {
	type result struct {
		err   error
		value string
	}
	done := make(chan result, 1)

	go func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		value, err := read()
		done <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ErrInputCanceled
	case res := <-done:
		return res.value, res.err
	}
}
