package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

func fixtureAttributes() []domain.Attribute {
	return []domain.Attribute{
		{ID: 1, Name: "Categoría", Values: []domain.AttributeValue{
			{ID: 1, AttributeID: 1, Value: "Ropa"},
			{ID: 2, AttributeID: 1, Value: "Calzado"},
		}},
		{ID: 2, Name: "Género", Values: []domain.AttributeValue{
			{ID: 4, AttributeID: 2, Value: "Hombre"},
			{ID: 5, AttributeID: 2, Value: "Mujer"},
		}},
		{ID: 6, Name: "Talla", Values: []domain.AttributeValue{
			{ID: 42, AttributeID: 6, Value: "M"},
			{ID: 43, AttributeID: 6, Value: "L"},
		}},
		{ID: 11, Name: "color", Values: []domain.AttributeValue{
			{ID: 28, AttributeID: 11, Value: "Negro"},
			{ID: 30, AttributeID: 11, Value: "Azul"},
		}},
		{ID: 12, Name: "Colección", Values: nil},
	}
}

type stubLoader struct {
	calls int32
	attrs []domain.Attribute
	err   error
	gate  chan struct{}
}

func (l *stubLoader) Attributes(ctx context.Context) ([]domain.Attribute, error) {
	atomic.AddInt32(&l.calls, 1)
	if l.gate != nil {
		<-l.gate
	}
	return l.attrs, l.err
}

func TestCatalog_NotReadyAnswersEmpty(t *testing.T) {
	c := New(DefaultNames)

	assert.False(t, c.Ready())
	assert.Empty(t, c.Attributes())
	assert.Empty(t, c.ValueIDs(RolePrimary))
	_, ok := c.Attribute(RoleSecondary)
	assert.False(t, ok)
	assert.Equal(t, "", c.ValueName(28))
	assert.Equal(t, RoleNone, c.RoleOf(28))
	_, ok = c.OwnerOf("Hombre")
	assert.False(t, ok)
	assert.Nil(t, c.FacetGroups())
}

func TestCatalog_RolesResolvedOnce(t *testing.T) {
	c := FromAttributes(DefaultNames, fixtureAttributes())

	color, ok := c.Attribute(RolePrimary)
	require.True(t, ok, "lowercase 'color' should still be the primary axis")
	assert.Equal(t, int64(11), color.ID)

	size, ok := c.Attribute(RoleSecondary)
	require.True(t, ok)
	assert.Equal(t, int64(6), size.ID)

	_, ok = c.Attribute(RoleUnit)
	assert.False(t, ok)

	assert.Equal(t, RolePrimary, c.RoleOf(30))
	assert.Equal(t, RoleSecondary, c.RoleOf(43))
	assert.Equal(t, RoleNone, c.RoleOf(4))
	assert.Equal(t, "Azul", c.ValueName(30))
	assert.Equal(t, []int64{28, 30}, SortedIDs(c.ValueIDs(RolePrimary)))
}

func TestCatalog_OwnerOfIgnoresAccentsAndRoles(t *testing.T) {
	attrs := fixtureAttributes()
	// "M" is also a size; the size attribute must never claim a category value.
	attrs[1].Values = append(attrs[1].Values, domain.AttributeValue{ID: 99, AttributeID: 2, Value: "M"})
	c := FromAttributes(DefaultNames, attrs)

	owner, ok := c.OwnerOf("hombre")
	require.True(t, ok)
	assert.Equal(t, "Género", owner)

	owner, ok = c.OwnerOf("M")
	require.True(t, ok)
	assert.Equal(t, "Género", owner)

	_, ok = c.OwnerOf("Negro")
	assert.False(t, ok)
	_, ok = c.OwnerOf("Inexistente")
	assert.False(t, ok)
}

func TestCatalog_FacetGroupsSkipRolesAndEmpty(t *testing.T) {
	c := FromAttributes(DefaultNames, fixtureAttributes())

	groups := c.FacetGroups()
	require.Len(t, groups, 2)
	assert.Equal(t, "Categoría", groups[0].Name)
	assert.Equal(t, "Género", groups[1].Name)
}

func TestCatalog_InitSharesSingleLoad(t *testing.T) {
	loader := &stubLoader{attrs: fixtureAttributes(), gate: make(chan struct{})}
	c := New(DefaultNames)

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.Init(context.Background(), loader)
		}()
	}
	close(loader.gate)
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.True(t, c.Ready())
	assert.LessOrEqual(t, atomic.LoadInt32(&loader.calls), int32(5))

	calls := atomic.LoadInt32(&loader.calls)
	require.NoError(t, c.Init(context.Background(), loader))
	assert.Equal(t, calls, atomic.LoadInt32(&loader.calls), "a loaded catalog must not fetch again")
}

func TestCatalog_InitFailureCanRetry(t *testing.T) {
	loader := &stubLoader{err: errors.New("boom")}
	c := New(DefaultNames)

	err := c.Init(context.Background(), loader)
	require.Error(t, err)
	assert.False(t, c.Ready())

	loader.err = nil
	loader.attrs = fixtureAttributes()
	require.NoError(t, c.Init(context.Background(), loader))
	assert.True(t, c.Ready())
}

func TestCatalog_RefreshReplacesLoadedAttributes(t *testing.T) {
	loader := &stubLoader{attrs: fixtureAttributes()}
	c := New(DefaultNames)
	require.NoError(t, c.Init(context.Background(), loader))

	loader.attrs = append(fixtureAttributes(), domain.Attribute{ID: 20, Name: "Material", Values: []domain.AttributeValue{
		{ID: 70, AttributeID: 20, Value: "Algodón"},
	}})
	require.NoError(t, c.Refresh(context.Background(), loader))
	assert.Equal(t, int32(2), atomic.LoadInt32(&loader.calls))
	assert.Equal(t, "Algodón", c.ValueName(70))

	loader.err = errors.New("boom")
	require.Error(t, c.Refresh(context.Background(), loader))
	assert.True(t, c.Ready(), "a failed refresh keeps the previous attributes")
	assert.Equal(t, "Algodón", c.ValueName(70))
}

func TestDefault_SetDefault(t *testing.T) {
	prev := Default()
	defer SetDefault(prev)

	c := FromAttributes(DefaultNames, fixtureAttributes())
	SetDefault(c)
	assert.Same(t, c, Default())
}
