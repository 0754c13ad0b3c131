package audio

import (
	"context"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	"go.uber.org/zap"

	"github.com/wippyai/sherpa-wasm/errors"
)

// CaptureConfig configures microphone capture.
type CaptureConfig struct {
	// DeviceRate is the rate requested from the device. 0 selects 48000.
	DeviceRate uint32
	// TargetRate is the rate of delivered chunks. 0 selects 16000.
	TargetRate int
	Channels   uint32
	// PeriodFrames is the device callback size. 0 selects 4096.
	PeriodFrames uint32
	// Backlog is the number of chunks buffered before new ones are dropped.
	Backlog int
}

func (c CaptureConfig) withDefaults() CaptureConfig {
	if c.DeviceRate == 0 {
		c.DeviceRate = 48000
	}
	if c.TargetRate == 0 {
		c.TargetRate = 16000
	}
	if c.Channels == 0 {
		c.Channels = 1
	}
	if c.PeriodFrames == 0 {
		c.PeriodFrames = DefaultChunkSize
	}
	if c.Backlog == 0 {
		c.Backlog = 32
	}
	return c
}

// Chunk is one block of captured audio at the target rate.
type Chunk struct {
	At         time.Time
	Samples    []float32
	SampleRate int
}

// Capturer records from the default capture device and delivers mono
// chunks at the target rate.
type Capturer struct {
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	chunks   chan Chunk
	stop     chan struct{}
	cfg      CaptureConfig
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
	dropped  int
}

func NewCapturer(cfg CaptureConfig) *Capturer {
	cfg = cfg.withDefaults()
	return &Capturer{
		cfg:    cfg,
		chunks: make(chan Chunk, cfg.Backlog),
		stop:   make(chan struct{}),
	}
}

// Chunks is closed by Stop.
func (c *Capturer) Chunks() <-chan Chunk {
	return c.chunks
}

// Start opens the device. Capture stops when ctx ends or Stop is called.
func (c *Capturer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return errors.New(errors.PhaseAudio, errors.KindInvalidInput).Detail("capturer is already running").Build()
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return errors.Wrap(errors.PhaseAudio, errors.KindIO, err, "initialize capture context")
	}

	devCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	devCfg.Capture.Format = malgo.FormatS16
	devCfg.Capture.Channels = c.cfg.Channels
	devCfg.SampleRate = c.cfg.DeviceRate
	devCfg.PeriodSizeInFrames = c.cfg.PeriodFrames

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			c.deliver(input)
		},
	}

	device, err := malgo.InitDevice(mctx.Context, devCfg, callbacks)
	if err != nil {
		_ = mctx.Uninit()
		mctx.Free()
		return errors.Wrap(errors.PhaseAudio, errors.KindIO, err, "initialize capture device")
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		_ = mctx.Uninit()
		mctx.Free()
		return errors.Wrap(errors.PhaseAudio, errors.KindIO, err, "start capture device")
	}

	c.malgoCtx, c.device, c.running = mctx, device, true

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		select {
		case <-ctx.Done():
			_ = c.Stop()
		case <-c.stop:
		}
	}()

	Logger().Info("capture started",
		zap.Uint32("device_rate", c.cfg.DeviceRate),
		zap.Int("target_rate", c.cfg.TargetRate))
	return nil
}

func (c *Capturer) deliver(input []byte) {
	samples := S16LEToFloat32(input, int(c.cfg.Channels))
	samples = Downsample(samples, int(c.cfg.DeviceRate), c.cfg.TargetRate)
	chunk := Chunk{At: time.Now(), Samples: samples, SampleRate: c.cfg.TargetRate}

	select {
	case c.chunks <- chunk:
	default:
		c.mu.Lock()
		c.dropped++
		n := c.dropped
		c.mu.Unlock()
		Logger().Warn("capture backlog full, dropping chunk", zap.Int("dropped", n))
	}
}

// Stop closes the device and the Chunks channel. It is safe to call more
// than once.
func (c *Capturer) Stop() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	device, mctx := c.device, c.malgoCtx
	c.device, c.malgoCtx = nil, nil
	c.mu.Unlock()

	close(c.stop)

	var err error
	if device != nil {
		if serr := device.Stop(); serr != nil {
			err = errors.Wrap(errors.PhaseAudio, errors.KindIO, serr, "stop capture device")
		}
		device.Uninit()
	}
	if mctx != nil {
		_ = mctx.Uninit()
		mctx.Free()
	}

	// The watcher may be the caller; it exits on its own once stop is closed.
	close(c.chunks)
	Logger().Info("capture stopped")
	return err
}

// Dropped returns the number of chunks discarded because the consumer fell
// behind.
func (c *Capturer) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}
