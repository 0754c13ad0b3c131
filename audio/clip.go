package audio

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/wippyai/sherpa-wasm/errors"
)

// Clip accumulates one recording session as 16-bit PCM.
type Clip struct {
	Created    time.Time
	Name       string
	data       []int16
	SampleRate int
	ID         uuid.UUID
}

// NewClip starts an empty clip named after its creation time.
func NewClip(sampleRate int) *Clip {
	now := time.Now().UTC()
	return &Clip{
		ID:         uuid.New(),
		Created:    now,
		Name:       now.Format(time.RFC3339Nano),
		SampleRate: sampleRate,
	}
}

// Append clamps and converts samples before storing them.
func (c *Clip) Append(samples []float32) {
	c.data = append(c.data, Float32ToInt16(samples)...)
}

func (c *Clip) Len() int { return len(c.data) }

func (c *Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(c.data)) * time.Second / time.Duration(c.SampleRate)
}

func (c *Clip) PCM() []int16 { return c.data }

// Save writes the clip to dir as <id>.wav and returns the path.
func (c *Clip) Save(dir string) (string, error) {
	path := filepath.Join(dir, c.ID.String()+".wav")
	if err := c.SaveAs(path); err != nil {
		return "", err
	}
	return path, nil
}

// SaveAs writes the clip to path as mono 16-bit WAV.
func (c *Clip) SaveAs(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.PhaseAudio, errors.KindIO, err, path)
	}
	if err := EncodeWAV(f, c.data, c.SampleRate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Reset drops the recorded samples and starts a new clip identity.
func (c *Clip) Reset() {
	fresh := NewClip(c.SampleRate)
	*c = *fresh
}
