package app

import (
	"context"
	"time"

	"videoingest/internal/transcode/ffmpeg"
)

// TranscodeSettings is the operator-tunable subset of the transcoder's
// ffmpeg invocation. Spec.md §4.6 fixes CRF 28 / preset fast / AAC audio
// as the defaults; this lets them be overridden from a persisted store
// outside the request path. The server loads the stored values once at
// startup (LoadInto); it exposes no endpoint that calls Update.
type TranscodeSettings struct {
	Preset       string
	CRF          int
	AudioBitrate string
}

// TranscodeSettingsStore persists settings across restarts. Satisfied by
// *mongo.TranscodeSettingsRepository; nil disables persistence.
type TranscodeSettingsStore interface {
	GetTranscodeSettings(ctx context.Context) (TranscodeSettings, bool, error)
	SetTranscodeSettings(ctx context.Context, settings TranscodeSettings) error
}

// TranscodeSettingsManager applies settings changes to the live
// transcoder and, when a store is configured, persists them and rolls
// back the in-memory change if persistence fails.
type TranscodeSettingsManager struct {
	engine  *ffmpeg.Transcoder
	store   TranscodeSettingsStore
	timeout time.Duration
}

func NewTranscodeSettingsManager(engine *ffmpeg.Transcoder, store TranscodeSettingsStore) *TranscodeSettingsManager {
	return &TranscodeSettingsManager{engine: engine, store: store, timeout: 5 * time.Second}
}

func (m *TranscodeSettingsManager) Get() TranscodeSettings {
	v := m.engine.CurrentSettings()
	return TranscodeSettings{Preset: v.Preset, CRF: v.CRF, AudioBitrate: v.AudioBitrate}
}

func (m *TranscodeSettingsManager) Update(settings TranscodeSettings) error {
	prev := m.Get()
	m.engine.UpdateSettings(ffmpeg.Settings{Preset: settings.Preset, CRF: settings.CRF, AudioBitrate: settings.AudioBitrate})

	if m.store == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	if err := m.store.SetTranscodeSettings(ctx, settings); err != nil {
		m.engine.UpdateSettings(ffmpeg.Settings{Preset: prev.Preset, CRF: prev.CRF, AudioBitrate: prev.AudioBitrate})
		return err
	}
	return nil
}

// LoadInto reads persisted settings, if any, and applies them to engine.
// Called once at startup, before the acceptor begins serving, never
// mid-request.
func (m *TranscodeSettingsManager) LoadInto(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	settings, ok, err := m.store.GetTranscodeSettings(ctx)
	if err != nil || !ok {
		return err
	}
	m.engine.UpdateSettings(ffmpeg.Settings{Preset: settings.Preset, CRF: settings.CRF, AudioBitrate: settings.AudioBitrate})
	return nil
}
