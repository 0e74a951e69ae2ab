// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package config

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymdesk/gymdesk/pkg/errutil"
)

func TestParseDuration(t *testing.T) {
	year := 365*24*time.Hour + 6*time.Hour
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"15m", 15 * time.Minute},
		{"1h30m", 90 * time.Minute},
		{"3600", time.Hour},
		{"1.5", 1500 * time.Millisecond},
		{"7d", 7 * 24 * time.Hour},
		{"2 weeks", 14 * 24 * time.Hour},
		{"1y", year},
		{"10 Years", 10 * year},
		{"3650d", 3650 * 24 * time.Hour},
		{"250 ms", 250 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDuration_Invalid(t *testing.T) {
	for _, in := range []string{"", "  ", "soon", "5 fortnights", "d7"} {
		_, err := ParseDuration(in)
		require.Error(t, err, in)
		errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	}
}

func TestDuration_TextRoundTrip(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("2d")))
	assert.Equal(t, 48*time.Hour, d.Std())

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "48h0m0s", string(text))

	require.Error(t, d.UnmarshalText([]byte("later")))
	assert.Equal(t, 48*time.Hour, d.Std(), "failed parse leaves value untouched")
}

func TestDurationHook(t *testing.T) {
	hook := durationHook()
	strType := reflect.TypeOf("")

	got, err := hook(strType, durationType, "1m")
	require.NoError(t, err)
	assert.Equal(t, Duration(time.Minute), got)

	got, err = hook(reflect.TypeOf(0), durationType, 30)
	require.NoError(t, err)
	assert.Equal(t, Duration(30*time.Second), got)

	got, err = hook(reflect.TypeOf(0.0), durationType, 0.5)
	require.NoError(t, err)
	assert.Equal(t, Duration(500*time.Millisecond), got)

	got, err = hook(strType, strType, "untouched")
	require.NoError(t, err)
	assert.Equal(t, "untouched", got)

	_, err = hook(strType, durationType, "never")
	require.Error(t, err)
}
