package variant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/catalog"
	"storefront/internal/domain"
)

func TestSelector_ScenarioWalkthrough(t *testing.T) {
	s := NewSelector(NewResolver(testCatalog()), scenarioVariants())

	require.NoError(t, s.SelectPrimary(negro))
	assert.Equal(t, []int64{tallaM, tallaL}, catalog.SortedIDs(s.AvailableSizes()))
	require.NoError(t, s.SelectSecondary(tallaL))
	assert.True(t, s.CanPurchase())

	require.NoError(t, s.SelectPrimary(azul))
	assert.Equal(t, []int64{tallaM}, catalog.SortedIDs(s.AvailableSizes()))
	assert.Equal(t, int64(0), s.Selection().SizeValueID)
	assert.Nil(t, s.Resolved())
	assert.False(t, s.CanPurchase())

	require.NoError(t, s.SelectSecondary(tallaM))
	v := s.Resolved()
	require.NotNil(t, v)
	assert.Equal(t, "110", v.Price.String())
	assert.Equal(t, "110", s.Price().String())
}

func TestSelector_DifferentColorAlwaysClearsSize(t *testing.T) {
	// tallaM is valid for both colors; it must still be cleared.
	s := NewSelector(NewResolver(testCatalog()), scenarioVariants())

	require.NoError(t, s.SelectPrimary(negro))
	require.NoError(t, s.SelectSecondary(tallaM))
	require.NoError(t, s.SelectPrimary(azul))

	assert.Equal(t, domain.Selection{ColorValueID: azul}, s.Selection())
}

func TestSelector_SameColorKeepsSize(t *testing.T) {
	s := NewSelector(NewResolver(testCatalog()), scenarioVariants())

	require.NoError(t, s.SelectPrimary(negro))
	require.NoError(t, s.SelectSecondary(tallaL))
	require.NoError(t, s.SelectPrimary(negro))

	assert.Equal(t, domain.Selection{ColorValueID: negro, SizeValueID: tallaL}, s.Selection())
}

func TestSelector_Rejections(t *testing.T) {
	s := NewSelector(NewResolver(testCatalog()), scenarioVariants())

	assert.ErrorIs(t, s.SelectSecondary(tallaM), ErrNoPrimarySelected)
	assert.ErrorIs(t, s.SelectPrimary(blanco), ErrColorUnavailable)
	assert.True(t, s.Selection().Empty())

	require.NoError(t, s.SelectPrimary(azul))
	assert.ErrorIs(t, s.SelectSecondary(tallaL), ErrSizeUnavailable)
	assert.Equal(t, domain.Selection{ColorValueID: azul}, s.Selection())
}

func TestSelector_ZeroStockCannotPurchase(t *testing.T) {
	vs := scenarioVariants()
	zero := int32(0)
	vs[0].Stock = &zero
	s := NewSelector(NewResolver(testCatalog()), vs)

	require.NoError(t, s.SelectPrimary(negro))
	require.NoError(t, s.SelectSecondary(tallaM))
	assert.NotNil(t, s.Resolved())
	assert.False(t, s.CanPurchase())
}

func TestSelector_Reset(t *testing.T) {
	s := NewSelector(NewResolver(testCatalog()), scenarioVariants())
	require.NoError(t, s.SelectPrimary(negro))
	require.NoError(t, s.SelectSecondary(tallaM))

	s.Reset()
	assert.True(t, s.Selection().Empty())
	assert.Empty(t, s.AvailableSizes())
	assert.Len(t, s.AvailableColors(), 2)
}
