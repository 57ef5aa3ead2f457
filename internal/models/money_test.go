package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCents(t *testing.T) {
	tests := []struct {
		in   string
		want Cents
	}{
		{"3.50", 350},
		{" 12 ", 1200},
		{"0.01", 1},
		{"19.999", 2000},
		{"2.005", 201},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCents(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCents_Invalid(t *testing.T) {
	_, err := ParseCents("abc")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ParseCents("")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ParseCents("0")
	assert.ErrorIs(t, err, ErrNonPositiveAmount)

	_, err = ParseCents("-4.20")
	assert.ErrorIs(t, err, ErrNonPositiveAmount)
}

func TestParseCents_OutOfRange(t *testing.T) {
	for _, in := range []string{"1e18", "100000000000000000", "92233720368547758.08", "-1e30"} {
		t.Run(in, func(t *testing.T) {
			got, err := ParseCents(in)
			require.Error(t, err)
			assert.Zero(t, got)
		})
	}

	_, err := ParseCents("1e18")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	got, err := ParseCents("92233720368547758.07")
	require.NoError(t, err)
	assert.Equal(t, Cents(math.MaxInt64), got)
}

func TestCentsString(t *testing.T) {
	assert.Equal(t, "3.50", Cents(350).String())
	assert.Equal(t, "0.07", Cents(7).String())
	assert.Equal(t, "1200.00", Cents(120000).String())
}

func TestTagRefJSON(t *testing.T) {
	var refs []TagRef
	require.NoError(t, json.Unmarshal([]byte(`[3, "groceries", " weekly "]`), &refs))
	require.Len(t, refs, 3)
	assert.Equal(t, TagByID(3), refs[0])
	assert.Equal(t, TagByName("groceries"), refs[1])
	assert.Equal(t, "weekly", refs[2].Name)

	out, err := json.Marshal(refs)
	require.NoError(t, err)
	assert.JSONEq(t, `[3, "groceries", "weekly"]`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`[""]`), &refs))
	assert.Error(t, json.Unmarshal([]byte(`[true]`), &refs))
	assert.Error(t, json.Unmarshal([]byte(`[0]`), &refs))
}

func TestTimestampJSON(t *testing.T) {
	ts := NewTimestamp(time.Date(2025, 1, 22, 12, 59, 36, 500, time.Local))
	out, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2025-01-22T12:59:36"`, string(out))

	var back Timestamp
	require.NoError(t, json.Unmarshal(out, &back))
	assert.True(t, ts.Equal(back.Time))

	require.NoError(t, json.Unmarshal([]byte(`"2025-03-01"`), &back))
	assert.Equal(t, 2025, back.Year())
	assert.Equal(t, time.March, back.Month())

	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &back))
}

func TestParseTransactionType(t *testing.T) {
	tt, err := ParseTransactionType("income")
	require.NoError(t, err)
	assert.Equal(t, Income, tt)

	tt, err = ParseTransactionType("Expense")
	require.NoError(t, err)
	assert.Equal(t, Expense, tt)

	_, err = ParseTransactionType("refund")
	assert.Error(t, err)
	assert.False(t, TransactionType("refund").Valid())
}
