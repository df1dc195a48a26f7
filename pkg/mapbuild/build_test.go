package mapbuild

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"roadmap/pkg/feed"
	"roadmap/pkg/feed/recordfeed"
)

func straightFeed() *recordfeed.Feed {
	var center [][2]float64
	var left [][2]float64
	var right [][2]float64
	for x := 0.0; x <= 100; x += 10 {
		center = append(center, [2]float64{x, 2})
		left = append(left, [2]float64{x, 0})
		right = append(right, [2]float64{x, 4})
	}

	refs := []feed.ReferenceLineRecord{
		{ID: "ref-1", Points: center, StreetName: "Test Ave", Category: "town"},
	}
	borders := []feed.LaneBorderRecord{
		{ID: "ref-1:left", ParentID: "ref-1", Points: left, Material: "asphalt", LineType: "driving"},
		{ID: "ref-1:right", ParentID: "ref-1", Points: right, Material: "asphalt", LineType: "driving"},
	}
	return recordfeed.New(refs, borders)
}

func TestFromFeedBuildsOneLanePerReferenceLine(t *testing.T) {
	m, err := FromFeed(straightFeed(), zap.NewNop())
	require.NoError(t, err)
	require.Len(t, m.Lanes, 1)
	require.Len(t, m.Roads, 1)

	l, ok := m.Lanes["ref-1"]
	require.True(t, ok)
	require.InDelta(t, 4.0, l.GetWidth(50), 1e-6)
}

func TestFromFeedSkipsReferenceLinesWithoutBorderPair(t *testing.T) {
	refs := []feed.ReferenceLineRecord{
		{ID: "lonely", Points: [][2]float64{{0, 0}, {10, 0}}},
	}
	_, err := FromFeed(recordfeed.New(refs, nil), zap.NewNop())
	require.Error(t, err, "no lanes buildable should surface as InvalidInput")
}

func TestFromFeedRecoversOrphanBorderByProximity(t *testing.T) {
	var center [][2]float64
	var left [][2]float64
	var right [][2]float64
	for x := 0.0; x <= 100; x += 10 {
		center = append(center, [2]float64{x, 2})
		left = append(left, [2]float64{x, 0})
		right = append(right, [2]float64{x, 4})
	}

	refs := []feed.ReferenceLineRecord{
		{ID: "ref-1", Points: center, StreetName: "Test Ave", Category: "town"},
	}
	borders := []feed.LaneBorderRecord{
		// ParentID missing: must be recovered by proximity to ref-1.
		{ID: "ref-1:left", Points: left, Material: "asphalt", LineType: "driving"},
		{ID: "ref-1:right", ParentID: "ref-1", Points: right, Material: "asphalt", LineType: "driving"},
	}

	m, err := FromFeed(recordfeed.New(refs, borders), zap.NewNop())
	require.NoError(t, err)
	require.Len(t, m.Lanes, 1)

	l, ok := m.Lanes["ref-1"]
	require.True(t, ok)
	require.InDelta(t, 4.0, l.GetWidth(50), 1e-6)
}
