package entitlement_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helioslabs/billingkit/pkg/entitlement"
)

func TestTableLimitsFor(t *testing.T) {
	t.Parallel()

	table := entitlement.Default()

	t.Run("known plans", func(t *testing.T) {
		t.Parallel()

		free := table.LimitsFor(entitlement.PlanFree)
		assert.Equal(t, int64(0), free.RequestQuota)
		assert.Empty(t, free.Features)

		simple := table.LimitsFor(entitlement.PlanSimple)
		assert.Equal(t, int64(1000), simple.RequestQuota)
		assert.True(t, simple.HasFeature(entitlement.FeatureBasic))
		assert.False(t, simple.HasFeature(entitlement.FeatureAdvanced))

		pro := table.LimitsFor(entitlement.PlanPro)
		assert.Equal(t, entitlement.Unlimited, pro.RequestQuota)
		assert.True(t, pro.HasFeature(entitlement.FeaturePremium))
	})

	t.Run("unknown plan falls back to free", func(t *testing.T) {
		t.Parallel()

		limits := table.LimitsFor(entitlement.Plan("enterprise"))
		assert.Equal(t, int64(0), limits.RequestQuota)
		assert.False(t, limits.Metered())
		assert.False(t, limits.HasFeature(entitlement.FeatureBasic))
	})
}

func TestLimitsMetered(t *testing.T) {
	t.Parallel()

	assert.False(t, entitlement.Limits{RequestQuota: 0}.Metered())
	assert.True(t, entitlement.Limits{RequestQuota: 100}.Metered())
	assert.True(t, entitlement.Limits{RequestQuota: entitlement.Unlimited}.Metered())
}

func TestStaticSource(t *testing.T) {
	t.Parallel()

	src := entitlement.NewStaticSource(entitlement.Default())
	table, err := src.Load(context.Background())
	require.NoError(t, err)

	// Mutating the loaded copy must not affect subsequent loads.
	table[entitlement.PlanFree] = entitlement.Limits{RequestQuota: 999}
	fresh, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), fresh.LimitsFor(entitlement.PlanFree).RequestQuota)
}

func TestStaticSourcePanicsWithoutFreePlan(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		entitlement.NewStaticSource(entitlement.Table{
			entitlement.PlanPro: {RequestQuota: entitlement.Unlimited},
		})
	})
}

func TestFileSource(t *testing.T) {
	t.Parallel()

	t.Run("valid file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "plans.yaml")
		data := `
free:
  request_quota: 0
  features: []
simple:
  request_quota: 2000
  features: [basic]
pro:
  request_quota: -1
  features: [basic, advanced, premium]
`
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

		table, err := entitlement.NewFileSource(path).Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(2000), table.LimitsFor(entitlement.PlanSimple).RequestQuota)
		assert.Equal(t, entitlement.Unlimited, table.LimitsFor(entitlement.PlanPro).RequestQuota)
	})

	t.Run("missing free entry", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "plans.yaml")
		require.NoError(t, os.WriteFile(path, []byte("pro:\n  request_quota: -1\n"), 0o644))

		_, err := entitlement.NewFileSource(path).Load(context.Background())
		assert.ErrorIs(t, err, entitlement.ErrInvalidTable)
	})

	t.Run("unknown plan id", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "plans.yaml")
		data := "free:\n  request_quota: 0\nenterprise:\n  request_quota: -1\n"
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

		_, err := entitlement.NewFileSource(path).Load(context.Background())
		assert.ErrorIs(t, err, entitlement.ErrInvalidTable)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := entitlement.NewFileSource("/nonexistent/plans.yaml").Load(context.Background())
		assert.ErrorIs(t, err, entitlement.ErrFailedToLoadTable)
	})
}
