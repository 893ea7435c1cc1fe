package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitcall-engine/internal/advisory"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	d, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestInsertAndQueryAdvisories(t *testing.T) {
	d := openTestDB(t)

	base := time.Date(2026, 5, 24, 14, 0, 0, 0, time.UTC)
	packets := []advisory.Packet{
		{TCall: 6.2, TSafe: 5.4, Status: advisory.StatusGreen, LapDistanceM: 2200, SpeedKPH: 190},
		{TCall: 3.1, TSafe: 2.3, Status: advisory.StatusAmber, LapDistanceM: 2380, SpeedKPH: 188},
		{TCall: 1.3, TSafe: 0.5, Status: advisory.StatusRed, LapDistanceM: 2450, SpeedKPH: 187.3},
	}
	for i, p := range packets {
		require.NoError(t, d.InsertAdvisory(base.Add(time.Duration(i)*time.Second), p))
	}

	records, err := d.QueryAdvisories(AdvisoryQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Most recent first.
	assert.Equal(t, advisory.StatusRed, records[0].Packet.Status)
	assert.Equal(t, advisory.StatusGreen, records[2].Packet.Status)
	assert.InDelta(t, 0.5, records[0].Packet.TSafe, 1e-9)
}

func TestQueryAdvisoriesByStatus(t *testing.T) {
	d := openTestDB(t)

	now := time.Now().UTC()
	require.NoError(t, d.InsertAdvisory(now, advisory.Packet{Status: advisory.StatusRed, TCall: 1, TSafe: 0.2}))
	require.NoError(t, d.InsertAdvisory(now, advisory.Packet{Status: advisory.StatusGreen, TCall: 9, TSafe: 8.2}))

	records, err := d.QueryAdvisories(AdvisoryQuery{Status: advisory.StatusRed})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, advisory.StatusRed, records[0].Packet.Status)
}

func TestQueryAdvisoriesLimitOffset(t *testing.T) {
	d := openTestDB(t)

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		p := advisory.Packet{Status: advisory.StatusGreen, LapDistanceM: float64(i)}
		require.NoError(t, d.InsertAdvisory(base.Add(time.Duration(i)*time.Second), p))
	}

	records, err := d.QueryAdvisories(AdvisoryQuery{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 3.0, records[0].Packet.LapDistanceM)
	assert.Equal(t, 2.0, records[1].Packet.LapDistanceM)
}

func TestGetStats(t *testing.T) {
	d := openTestDB(t)

	now := time.Now().UTC()
	require.NoError(t, d.InsertAdvisory(now, advisory.Packet{Status: advisory.StatusRed, TSafe: 0.5, SpeedKPH: 187}))
	require.NoError(t, d.InsertAdvisory(now, advisory.Packet{Status: advisory.StatusRed, TSafe: 0.2, SpeedKPH: 190}))
	require.NoError(t, d.InsertAdvisory(now, advisory.Packet{Status: advisory.StatusLockedOut, TSafe: -1.1, SpeedKPH: 140}))

	stats, err := d.GetStats()
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats["total_advisories"])
	byStatus := stats["by_status"].(map[string]int64)
	assert.Equal(t, int64(2), byStatus["RED"])
	assert.Equal(t, int64(1), byStatus["LOCKED_OUT"])
	assert.InDelta(t, -1.1, stats["min_t_safe"].(float64), 1e-9)
	assert.InDelta(t, 190.0, stats["max_speed_kph"].(float64), 1e-9)
}

func TestGetStatsEmpty(t *testing.T) {
	d := openTestDB(t)

	stats, err := d.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats["total_advisories"])
	_, hasMin := stats["min_t_safe"]
	assert.False(t, hasMin)
}

func TestRecordDrainsChannel(t *testing.T) {
	d := openTestDB(t)

	ch := make(chan advisory.Packet, 4)
	ch <- advisory.Packet{Status: advisory.StatusGreen, TCall: 8}
	ch <- advisory.Packet{Status: advisory.StatusAmber, TCall: 3}
	close(ch)

	require.NoError(t, d.Record(context.Background(), ch))

	records, err := d.QueryAdvisories(AdvisoryQuery{})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
