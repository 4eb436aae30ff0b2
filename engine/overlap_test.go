package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlapPlannerAllPermanentWhenWGEM(t *testing.T) {
	p, err := newOverlapPlanner(8, 8, 100)
	require.NoError(t, err)
	assert.Equal(t, 8, p.permanent)
	assert.Equal(t, int64(0), p.poolABytes)
	assert.Equal(t, int64(0), p.poolBBytes)
}

func TestOverlapPlannerPoolBOnly(t *testing.T) {
	// M=10, W=6: 2W=12>=M, but W<M so not fully permanent.
	p, err := newOverlapPlanner(10, 6, 100)
	require.NoError(t, err)
	assert.Equal(t, 6, p.permanent)
	assert.Equal(t, int64(0), p.poolABytes)
	assert.Equal(t, int64(400), p.poolBBytes) // (10-6)*100
}

func TestOverlapPlannerPoolAAndB(t *testing.T) {
	// M=10, W=4: 2W=8<10, 3W=12>=10.
	p, err := newOverlapPlanner(10, 4, 100)
	require.NoError(t, err)
	assert.Equal(t, 4, p.permanent)
	assert.Equal(t, int64(200), p.poolABytes) // (10-8)*100
	assert.Equal(t, int64(400), p.poolBBytes) // 4*100
}

func TestOverlapPlannerStrictDoubleBuffer(t *testing.T) {
	// M=24, W=2: 3W=6<24.
	p, err := newOverlapPlanner(24, 2, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, p.permanent)
	assert.Equal(t, int64(200), p.poolABytes)
	assert.Equal(t, int64(200), p.poolBBytes)
}

func TestRingPoolIndexAlternates(t *testing.T) {
	assert.Equal(t, 1, ringPoolIndex(0, 2))
	assert.Equal(t, 0, ringPoolIndex(2, 2))
	assert.Equal(t, 1, ringPoolIndex(4, 2))
}

func TestOverlapPlannerRejectsZeroWindow(t *testing.T) {
	_, err := newOverlapPlanner(10, 0, 100)
	require.Error(t, err)
}
