package ingest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/forecast/internal/domain"
)

func TestNormalizer_Deals(t *testing.T) {
	text := "account_name,opportunity_name,stage,vp_forecast,arr,close_date,segment,deal_type\n" +
		"Acme,Renewal,Negotiation,Commit,120000,2025-03-14,Enterprise,Expansion\n" +
		"Globex,Platform,Proposal,Best Case,n/a,3/7/2025,Commercial,New Business\n" +
		"Initech,Pilot,Discovery,Pipeline,,not a date,NorCal,New Business\n"

	deals := NewNormalizer(nil).Deals(Parse(text))
	require.Len(t, deals, 3)

	for i, d := range deals {
		assert.Equal(t, i, d.ID)
	}

	assert.Equal(t, domain.BucketForecast, deals[0].Bucket)
	assert.True(t, decimal.NewFromInt(120000).Equal(deals[0].ARR))
	assert.Equal(t, time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC), deals[0].CloseDate)

	// non-numeric amount is coerced to zero
	assert.Equal(t, domain.BucketBestCase, deals[1].Bucket)
	assert.True(t, deals[1].ARR.IsZero())
	assert.Equal(t, time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC), deals[1].CloseDate)

	assert.Equal(t, domain.BucketNone, deals[2].Bucket)
	assert.True(t, deals[2].ARR.IsZero())
	assert.False(t, deals[2].HasCloseDate())
	assert.True(t, deals[2].IsNewBusiness())
}

func TestNormalizer_Changes(t *testing.T) {
	text := "account_name,opportunity_name,deal_type,change_type,snapshot_arr,current_arr,snapshot_stage,current_stage,snapshot_close_date,current_close_date\n" +
		"Acme,Renewal,Expansion,ARR Increase,100000,150000,Proposal,Negotiation,2025-03-01,2025-03-01\n" +
		"Globex,Platform,New Business,,0,$80000,,Discovery,,2025-04-01\n" +
		"Hooli,Search,New Business,Reforecast,10,20\n"

	changes := NewNormalizer(nil).Changes(Parse(text))
	require.Len(t, changes, 3)

	assert.Equal(t, domain.ChangeARRIncrease, changes[0].ChangeType)
	assert.True(t, decimal.NewFromInt(100000).Equal(changes[0].SnapshotARR))
	assert.True(t, decimal.NewFromInt(150000).Equal(changes[0].CurrentARR))

	// empty change type reads as Active, missing snapshot stage as a new deal
	assert.Equal(t, domain.ChangeActive, changes[1].ChangeType)
	assert.True(t, decimal.NewFromInt(80000).Equal(changes[1].CurrentARR))
	assert.Equal(t, domain.NewDealStage, changes[1].SourceStage())
	assert.True(t, changes[1].SnapshotCloseDate.IsZero())

	// unknown labels are kept literally
	assert.Equal(t, domain.ChangeType("Reforecast"), changes[2].ChangeType)
	assert.Empty(t, changes[2].CurrentStage)
}

func TestNormalizer_ClosedWon(t *testing.T) {
	text := "account_name,opportunity_name,arr,close_date,segment,deal_type\n" +
		"Acme,Expansion,250000,2025-02-20T00:00:00Z,Enterprise,Expansion\n"

	records := NewNormalizer(nil).ClosedWon(Parse(text))
	require.Len(t, records, 1)

	assert.Equal(t, "Acme", records[0].AccountName)
	assert.True(t, decimal.NewFromInt(250000).Equal(records[0].ARR))
	assert.True(t, records[0].HasCloseDate())
	assert.False(t, records[0].IsNewBusiness())
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw      string
		expected decimal.Decimal
		wantErr  bool
	}{
		{raw: "100", expected: decimal.NewFromInt(100)},
		{raw: "$2500.50", expected: decimal.RequireFromString("2500.50")},
		{raw: " 7 ", expected: decimal.NewFromInt(7)},
		{raw: "abc", wantErr: true},
		{raw: "NaN", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "expected %s, got %s", tt.expected, got)
		})
	}
}
