package worker

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/andresmejia3/facebridge/internal/types"
	"github.com/andresmejia3/facebridge/internal/utils" // Using the SafeCommand wrapper
)

// maxFrame caps a single envelope. Captured frames arrive as base64 data URIs,
// so this has to hold a full-resolution JPEG.
const maxFrame = 64 * 1024 * 1024

// ContentWorker is a headless content surface running as a child process.
// It satisfies surface.Transport.
type ContentWorker struct {
	ID       int
	Cmd      *utils.SafeCommand
	Stdin    io.WriteCloser
	DataPipe io.ReadCloser

	closeOnce sync.Once
}

// NewContentWorker starts the content process described by name/args.
func NewContentWorker(id int, name string, args ...string) (*ContentWorker, error) {
	proc := utils.NewSafeCommand(name, args...)

	// Create a side-channel pipe (FD 3) so console output on stdout never corrupts frames
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create pipe: %w", err)
	}
	// Pass the write-end to the child process. It will appear as FD 3.
	proc.Cmd.ExtraFiles = []*os.File{w}

	stdin, err := proc.StdinPipe()
	if err != nil {
		w.Close() // Prevent FD leak
		r.Close()
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	if err := proc.Start(); err != nil {
		w.Close()
		r.Close()
		return nil, fmt.Errorf("worker %d failed to start: %w", id, err)
	}

	// Close the write-end in the parent so only the child holds it
	w.Close()

	return &ContentWorker{
		ID:       id,
		Cmd:      proc,
		Stdin:    stdin,
		DataPipe: r,
	}, nil
}

// Send writes one envelope. Protocol: [Length uint32 BE][JSON]
func (w *ContentWorker) Send(msg types.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := binary.Write(w.Stdin, binary.BigEndian, uint32(len(body))); err != nil {
		return err
	}
	_, err = w.Stdin.Write(body)
	return err
}

// Receive reads the next envelope from the data pipe.
func (w *ContentWorker) Receive() (types.Message, error) {
	var msg types.Message

	header := make([]byte, 4)
	if _, err := io.ReadFull(w.DataPipe, header); err != nil {
		return msg, err // This is where we catch a worker that died on startup
	}

	respLen := binary.BigEndian.Uint32(header)
	if respLen > maxFrame {
		return msg, fmt.Errorf("worker %d sent oversized frame (%d bytes)", w.ID, respLen)
	}
	body := make([]byte, respLen)
	if _, err := io.ReadFull(w.DataPipe, body); err != nil {
		return msg, err
	}
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, fmt.Errorf("worker %d sent malformed envelope: %w", w.ID, err)
	}
	return msg, nil
}

// Close closes both pipes and reaps the process. Safe to call more than once.
func (w *ContentWorker) Close() error {
	w.closeOnce.Do(func() {
		w.Stdin.Close()
		w.DataPipe.Close()
		if w.Cmd != nil {
			w.Cmd.Wait()
		}
	})
	return nil
}
