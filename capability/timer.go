// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package capability

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	gerrors "github.com/tochemey/goflow/errors"
)

// TimerName is the name of the timer capability
const TimerName = "sys.timer"

// Timer becomes readable once its delay elapses and wakes its owner up.
//
// Config keys: "delay" (a duration string or a number of seconds) and
// "repeat" (re-arm after every read).
type Timer struct {
	mu        sync.Mutex
	delay     time.Duration
	repeat    bool
	triggered bool
	timer     *time.Timer
	wakeup    func()
	closed    bool
}

var (
	_ Capability = (*Timer)(nil)
	_ Serializer = (*Timer)(nil)
	_ Restorer   = (*Timer)(nil)
)

type timerState struct {
	Delay     string `json:"delay"`
	Repeat    bool   `json:"repeat"`
	Triggered bool   `json:"triggered"`
}

// NewTimer is the Factory of the sys.timer capability. The timer is armed
// right away.
func NewTimer(_ string, config map[string]any, wakeup func()) (Capability, error) {
	delay, err := durationValue(config["delay"])
	if err != nil {
		return nil, err
	}
	repeat, _ := config["repeat"].(bool)
	t := &Timer{delay: delay, repeat: repeat, wakeup: wakeup}
	t.mu.Lock()
	t.arm()
	t.mu.Unlock()
	return t, nil
}

// CanRead reports whether the timer has fired
func (t *Timer) CanRead() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.triggered
}

// Read acknowledges the timer. A repeating timer is re-armed.
func (t *Timer) Read() (any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.triggered {
		return nil, gerrors.ErrCapabilityNotReady
	}
	t.triggered = false
	if t.repeat {
		t.arm()
	}
	return true, nil
}

// CanWrite always returns true while the timer is open
func (t *Timer) CanWrite() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed
}

// Write re-arms the timer with a new delay
func (t *Timer) Write(value any) error {
	delay, err := durationValue(value)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.delay = delay
	t.triggered = false
	t.arm()
	return nil
}

// Close stops the timer
func (t *Timer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	return nil
}

// Serialize returns the timer settings
func (t *Timer) Serialize() (json.RawMessage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return json.Marshal(timerState{Delay: t.delay.String(), Repeat: t.repeat, Triggered: t.triggered})
}

// Restore resumes the timer. A timer that had fired stays readable, otherwise
// it is re-armed with its full delay.
func (t *Timer) Restore(state json.RawMessage) error {
	var s timerState
	if err := json.Unmarshal(state, &s); err != nil {
		return err
	}
	delay, err := time.ParseDuration(s.Delay)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.delay = delay
	t.repeat = s.Repeat
	if s.Triggered {
		if t.timer != nil {
			t.timer.Stop()
			t.timer = nil
		}
		t.triggered = true
		return nil
	}
	t.arm()
	return nil
}

// arm must be called with the lock held
func (t *Timer) arm() {
	if t.closed {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.delay, t.fire)
}

func (t *Timer) fire() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.triggered = true
	t.mu.Unlock()

	if t.wakeup != nil {
		t.wakeup()
	}
}

func durationValue(raw any) (time.Duration, error) {
	switch v := raw.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return v, nil
	case string:
		return time.ParseDuration(v)
	case int:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("unsupported delay type %T", raw)
	}
}
