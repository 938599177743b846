// Package dictation drives audio capture for voice dictation.
package dictation

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type State int

const (
	Idle State = iota
	Recording
)

func (s State) String() string {
	if s == Recording {
		return "recording"
	}
	return "idle"
}

// PermissionError 无法访问录音设备
// PermissionError reports that audio capture was denied.
type PermissionError struct {
	Err error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("audio capture denied: %v", e.Err)
}

func (e *PermissionError) Unwrap() error {
	return e.Err
}

// Recorder captures one audio clip between Start and Stop.
type Recorder interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) ([]byte, error)
}

// Transcriber turns a recorded clip into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Event is what a Toggle did.
type Event struct {
	State State
	// Text is set when the toggle stopped a recording and transcription succeeded.
	Text string
}

// Machine Idle -> Recording -> Idle，录音停止时发起转写
// Machine is the Idle -> Recording -> Idle state machine. Stopping a recording
// sends the clip to the transcriber.
type Machine struct {
	recorder    Recorder
	transcriber Transcriber

	mu    sync.Mutex
	state State
}

func NewMachine(recorder Recorder, transcriber Transcriber) *Machine {
	return &Machine{recorder: recorder, transcriber: transcriber}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Toggle starts a recording when idle, or stops it and transcribes when recording.
// A failed start leaves the machine idle. After a stop the machine is idle
// whether or not transcription succeeds.
func (m *Machine) Toggle(ctx context.Context) (Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Idle {
		if err := m.recorder.Start(ctx); err != nil {
			var perr *PermissionError
			if errors.As(err, &perr) {
				return Event{State: Idle}, err
			}
			return Event{State: Idle}, fmt.Errorf("start recording: %w", err)
		}
		m.state = Recording
		return Event{State: Recording}, nil
	}

	audio, err := m.recorder.Stop(ctx)
	m.state = Idle
	if err != nil {
		return Event{State: Idle}, fmt.Errorf("stop recording: %w", err)
	}
	text, err := m.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return Event{State: Idle}, err
	}
	return Event{State: Idle, Text: text}, nil
}
