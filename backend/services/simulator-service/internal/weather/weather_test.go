package weather

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSubscriber struct {
	filter  string
	handler func(string, []byte)
	err     error
}

func (f *fakeSubscriber) Subscribe(filter string, _ byte, handler func(string, []byte)) error {
	f.filter = filter
	f.handler = handler
	return f.err
}

func TestCacheDefaultsAndOverwrites(t *testing.T) {
	c := NewCache(25)
	assert.Equal(t, 25.0, c.Ambient("v1"))

	c.Set("v1", 12.5, time.Now())
	assert.Equal(t, 12.5, c.Ambient("v1"))

	c.Set("v1", 0, time.Now())
	assert.Equal(t, 0.0, c.Ambient("v1"))

	s, ok := c.Get("v1")
	require.True(t, ok)
	assert.Equal(t, "v1", s.VehicleID)
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := NewCache(25)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c.Set("v1", float64(i), time.Now())
		}(i)
		go func() {
			defer wg.Done()
			_ = c.Ambient("v1")
		}()
	}
	wg.Wait()
	_, ok := c.Get("v1")
	assert.True(t, ok)
}

func TestParsePayload(t *testing.T) {
	v, err := ParsePayload([]byte(`{"outsideTemperature": 7.5, "city": "Oslo"}`))
	require.NoError(t, err)
	assert.Equal(t, 7.5, v)

	_, err = ParsePayload([]byte(`{"temp": 7.5}`))
	assert.True(t, errors.Is(err, ErrMissingTemperature))

	_, err = ParsePayload([]byte(`{"outsideTemperature": "warm"}`))
	assert.Error(t, err)

	_, err = ParsePayload([]byte(`not json`))
	assert.Error(t, err)
}

func TestListenerUpdatesCache(t *testing.T) {
	cache := NewCache(25)
	sub := &fakeSubscriber{}
	l := NewListener(cache, sub, "car/+/weather", 0, zap.NewNop())

	require.NoError(t, l.Start())
	assert.Equal(t, "car/+/weather", sub.filter)

	sub.handler("car/v1/weather", []byte(`{"outsideTemperature": 5}`))
	assert.Equal(t, 5.0, cache.Ambient("v1"))
}

func TestListenerKeepsPriorValueOnMalformedPayload(t *testing.T) {
	cache := NewCache(25)
	l := NewListener(cache, &fakeSubscriber{}, "car/+/weather", 0, zap.NewNop())

	l.Handle("car/v1/weather", []byte(`{"outsideTemperature": 18}`))
	l.Handle("car/v1/weather", []byte(`{}`))
	l.Handle("car/v1/weather", []byte(`{"outsideTemperature": null}`))
	assert.Equal(t, 18.0, cache.Ambient("v1"))

	l.Handle("car/v2/weather", []byte(`garbage`))
	_, ok := cache.Get("v2")
	assert.False(t, ok)
}

func TestListenerIgnoresUnexpectedTopic(t *testing.T) {
	cache := NewCache(25)
	l := NewListener(cache, &fakeSubscriber{}, "car/+/weather", 0, zap.NewNop())

	l.Handle("weather", []byte(`{"outsideTemperature": 3}`))
	_, ok := cache.Get("weather")
	assert.False(t, ok)
}

func TestListenerStartPropagatesError(t *testing.T) {
	l := NewListener(NewCache(25), &fakeSubscriber{err: errors.New("down")}, "car/+/weather", 0, zap.NewNop())
	assert.Error(t, l.Start())
}
