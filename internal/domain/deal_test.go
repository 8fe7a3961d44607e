package domain

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketFromVPForecast(t *testing.T) {
	tests := []struct {
		label    string
		expected Bucket
	}{
		{label: "Commit", expected: BucketForecast},
		{label: "Best Case", expected: BucketBestCase},
		{label: "Most Likely", expected: BucketNone},
		{label: "", expected: BucketNone},
		{label: "commit", expected: BucketNone},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.expected, BucketFromVPForecast(tt.label))
		})
	}
}

func TestDealRecord_Toggle(t *testing.T) {
	tests := []struct {
		name     string
		start    Bucket
		toggle   Bucket
		expected Bucket
	}{
		{name: "none to forecast", start: BucketNone, toggle: BucketForecast, expected: BucketForecast},
		{name: "none to best case", start: BucketNone, toggle: BucketBestCase, expected: BucketBestCase},
		{name: "forecast off", start: BucketForecast, toggle: BucketForecast, expected: BucketNone},
		{name: "best case off", start: BucketBestCase, toggle: BucketBestCase, expected: BucketNone},
		{name: "forecast clears best case", start: BucketBestCase, toggle: BucketForecast, expected: BucketForecast},
		{name: "best case clears forecast", start: BucketForecast, toggle: BucketBestCase, expected: BucketBestCase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deal := DealRecord{ID: 1, ARR: decimal.NewFromInt(100), Bucket: tt.start}

			got, err := deal.Toggle(tt.toggle)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.Bucket)
			assert.False(t, got.InForecast() && got.InBestCase())
			assert.Equal(t, tt.start, deal.Bucket, "receiver must not change")
		})
	}
}

func TestDealRecord_ToggleSequenceKeepsFlagsExclusive(t *testing.T) {
	deal := DealRecord{Bucket: BucketFromVPForecast(VPForecastCommit)}
	sequence := []Bucket{BucketBestCase, BucketBestCase, BucketForecast, BucketBestCase, BucketForecast, BucketForecast}

	for _, b := range sequence {
		var err error
		deal, err = deal.Toggle(b)
		require.NoError(t, err)
		require.False(t, deal.InForecast() && deal.InBestCase())
	}
	assert.Equal(t, BucketNone, deal.Bucket)
}

func TestDealRecord_ToggleUnknownBucket(t *testing.T) {
	deal := DealRecord{Bucket: BucketForecast}

	got, err := deal.Toggle(BucketNone)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownBucket))
	assert.Equal(t, BucketForecast, got.Bucket)
}

func TestParseBucket(t *testing.T) {
	b, err := ParseBucket("forecast")
	require.NoError(t, err)
	assert.Equal(t, BucketForecast, b)

	b, err = ParseBucket("bestCase")
	require.NoError(t, err)
	assert.Equal(t, BucketBestCase, b)

	_, err = ParseBucket("upside")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownBucket))
}

func TestDealRecord_MarshalJSON(t *testing.T) {
	deal := DealRecord{ID: 3, AccountName: "Acme", ARR: decimal.NewFromInt(1200), Bucket: BucketBestCase}

	payload, err := deal.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"inForecast":false`)
	assert.Contains(t, string(payload), `"inBestCase":true`)
	assert.NotContains(t, string(payload), `"close_date"`)
}
