package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screen-translate/src/cache"
	"screen-translate/src/config"
	"screen-translate/src/display"
	"screen-translate/src/pipeline"
	"screen-translate/src/translate"
)

func TestNewRootCmdParsesFlags(t *testing.T) {
	var got *mainOptions
	opts := &mainOptions{}
	cmd := newRootCmd(opts, func(o *mainOptions) error { got = o; return nil })
	cmd.SetArgs([]string{"--settings", "/tmp/settings.toml", "-v"})

	require.NoError(t, cmd.Execute())
	require.NotNil(t, got)
	assert.Equal(t, "/tmp/settings.toml", got.settingsPath)
	assert.True(t, got.verbose)
}

func TestNewRootCmdRejectsArgs(t *testing.T) {
	cmd := newRootCmd(&mainOptions{}, func(*mainOptions) error { return nil })
	cmd.SetArgs([]string{"extra"})
	assert.Error(t, cmd.Execute())
}

func TestHistoryWriterNilStore(t *testing.T) {
	assert.Nil(t, historyWriter(nil))
}

type themedSurface struct {
	*display.LogSurface
	theme string
}

func (s *themedSurface) SetTheme(theme string) { s.theme = theme }

func TestApplySettingsSwapsProvider(t *testing.T) {
	cfg := config.Defaults()
	d := translate.NewDispatcher(translate.NewBaidu(cfg.Baidu, nil), translate.Options{Cache: cache.New(cache.Options{})})
	surface := &themedSurface{LogSurface: display.NewLogSurface()}
	orch := pipeline.New(pipeline.Options{Surface: surface, Translator: d})

	next := config.Defaults()
	next.Engine = config.EngineTencent
	next.Theme = config.ThemeLight
	applySettings(next, d, orch, surface)
	assert.Equal(t, config.EngineTencent, d.ProviderName())
	assert.Equal(t, config.ThemeLight, surface.theme)

	bad := config.Defaults()
	bad.Engine = "nope"
	applySettings(bad, d, orch, surface)
	assert.Equal(t, config.EngineTencent, d.ProviderName())
}
