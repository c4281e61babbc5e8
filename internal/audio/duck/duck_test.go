package duck

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listing = `Sink Input #41
	Driver: protocol-native.c
	Volume: front-left: 65536 / 100% / 0.00 dB,   front-right: 65536 / 100% / 0.00 dB
	Properties:
		application.name = "Firefox"
Sink Input #42
	Volume: mono: 52428 /  80% / -5.81 dB
	Properties:
		application.name = "thaili"
Sink Input #43
	Volume: front-left: 32768 / 50% / -18.06 dB
	Properties:
		application.name = "mpv"
Sink Input #bogus
	Volume: mono: 100%
`

type fakePactl struct {
	mu      sync.Mutex
	listing string
	sets    []string
	fail    error
}

func (f *fakePactl) run(_ context.Context, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail != nil {
		return nil, f.fail
	}
	if args[0] == "list" {
		return []byte(f.listing), nil
	}
	f.sets = append(f.sets, strings.Join(args[1:], " "))
	return nil, nil
}

func TestParseSinkInputs(t *testing.T) {
	got := parseSinkInputs(listing)
	assert.Equal(t, []sinkInput{
		{ID: 41, Volume: 100, AppName: "Firefox"},
		{ID: 42, Volume: 80, AppName: "thaili"},
		{ID: 43, Volume: 50, AppName: "mpv"},
	}, got)

	assert.Nil(t, parseSinkInputs(""))
}

func TestDuckAndRestore(t *testing.T) {
	p := &fakePactl{listing: listing}
	d := New(Config{Skip: []string{"thaili"}, Factor: 0.3, MinVolume: 20}, p.run)

	require.NoError(t, d.Duck(context.Background()))
	assert.Equal(t, []string{"41 30%", "43 20%"}, p.sets)

	// second call does nothing
	require.NoError(t, d.Duck(context.Background()))
	assert.Len(t, p.sets, 2)

	p.sets = nil
	p.listing = strings.NewReplacer("100%", "30%", "50%", "20%").Replace(listing) +
		"Sink Input #44\n\tVolume: mono: 90%\n"
	require.NoError(t, d.Restore(context.Background()))
	assert.Equal(t, []string{"41 100%", "43 50%"}, p.sets)

	p.sets = nil
	require.NoError(t, d.Restore(context.Background()))
	assert.Empty(t, p.sets)
}

func TestDuckFadesInSteps(t *testing.T) {
	p := &fakePactl{listing: "Sink Input #7\n\tVolume: mono: 100%\n"}
	d := New(Config{Factor: 0.5, Fade: 40 * time.Millisecond, Step: 10 * time.Millisecond}, p.run)

	require.NoError(t, d.Duck(context.Background()))
	assert.Equal(t, []string{"7 88%", "7 75%", "7 63%", "7 50%"}, p.sets)
}

func TestDuckListFailure(t *testing.T) {
	p := &fakePactl{fail: errors.New("no pulse")}
	d := New(Config{}, p.run)

	err := d.Duck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pactl list sink-inputs")

	// still inactive, so restore is a no-op
	assert.NoError(t, d.Restore(context.Background()))
}

func TestNewClampsVolume(t *testing.T) {
	d := New(Config{MinVolume: 500}, nil)
	assert.Equal(t, maxVolume, d.cfg.MinVolume)
	assert.Equal(t, 0.3, d.cfg.Factor)
	assert.NotNil(t, d.run)
}
