package logger

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Messages carries encoded JSON log entries to whatever frontend is attached (stdout printer or debug UI).
var Messages = make(chan []byte, 128)

// Dropped counts entries discarded because Messages was full.
var Dropped uint64

const (
	ErrorLvl               = 0
	WarningLvl             = 1
	InfoLvl                = 2
	ActionLvl              = 3
	ControlsLvl            = 4
	ControlsNotAssignedLvl = 5
	LightingLvl            = 6

	DebugLvl = 378
)

var (
	Error               = zap.Int("level", ErrorLvl)
	Warning             = zap.Int("level", WarningLvl)
	Info                = zap.Int("level", InfoLvl)
	Action              = zap.Int("level", ActionLvl)
	Controls            = zap.Int("level", ControlsLvl)
	ControlsNotAssigned = zap.Int("level", ControlsNotAssignedLvl)
	Lighting            = zap.Int("level", LightingLvl)

	Debug = zap.Int("level", DebugLvl)
)

type chanWriter struct {
	sync.Mutex
}

func (w *chanWriter) Write(p []byte) (n int, err error) {
	w.Lock()
	defer w.Unlock()

	var entry = make([]byte, len(p))
	copy(entry, p)

	// MIDI handling must never wait for a log consumer
	select {
	case Messages <- entry:
	default:
		atomic.AddUint64(&Dropped, 1)
	}
	return len(p), nil
}

func (w *chanWriter) Sync() error {
	return nil
}

func DroppedCount() uint64 {
	return atomic.LoadUint64(&Dropped)
}

func GetLogger() *zap.Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.SkipLineEnding = true
	cfg.EncodeTime = zapcore.EpochNanosTimeEncoder
	cfg.LevelKey = ""
	encoder := zapcore.NewJSONEncoder(cfg)

	return zap.New(
		zapcore.NewCore(encoder, zapcore.Lock(&chanWriter{}), zap.DebugLevel),
		zap.AddCaller(),
	)
}
