package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/storage"
)

type memKV struct {
	data    map[string]string
	failSet bool
}

func newMemKV() *memKV { return &memKV{data: map[string]string{}} }

func (m *memKV) Get(_ context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (m *memKV) Set(_ context.Context, key, value string) error {
	if m.failSet {
		return errors.New("disk full")
	}
	m.data[key] = value
	return nil
}

func product(id int64, price int64, stock int) models.Product {
	return models.Product{ID: id, Name: "Keripik", Price: price, Stock: stock, Category: "Original", Image: "/img.png"}
}

func TestAddLine_EmptyCart(t *testing.T) {
	ctx := context.Background()
	for q := 1; q <= 5; q++ {
		s := NewStore(newMemKV())
		line, err := s.AddLine(ctx, product(1, 10000, 5), q)
		require.NoError(t, err)
		require.Equal(t, q, line.Quantity)

		lines := s.Lines()
		require.Len(t, lines, 1)
		require.Equal(t, q, lines[0].Quantity)
	}
}

func TestAddLine_MergesAndClamps(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		q1, q2, stock, want int
	}{
		{1, 1, 5, 2},
		{3, 4, 5, 5},
		{5, 5, 5, 5},
		{2, 0, 5, 3},
	}
	for _, tc := range cases {
		s := NewStore(newMemKV())
		_, err := s.AddLine(ctx, product(7, 1000, tc.stock), tc.q1)
		require.NoError(t, err)
		_, err = s.AddLine(ctx, product(7, 1000, tc.stock), tc.q2)
		require.NoError(t, err)

		lines := s.Lines()
		require.Len(t, lines, 1)
		assert.Equal(t, tc.want, lines[0].Quantity, "q1=%d q2=%d stock=%d", tc.q1, tc.q2, tc.stock)
	}
}

func TestAddLine_OutOfStock(t *testing.T) {
	s := NewStore(newMemKV())
	_, err := s.AddLine(context.Background(), product(1, 1000, 0), 1)
	require.ErrorIs(t, err, ErrOutOfStock)
	require.Empty(t, s.Lines())
}

func TestAddLine_RefreshesCachedFields(t *testing.T) {
	ctx := context.Background()
	s := NewStore(newMemKV())
	_, err := s.AddLine(ctx, product(1, 1000, 10), 1)
	require.NoError(t, err)

	p := product(1, 1500, 3)
	p.Name = "Keripik Baru"
	_, err = s.AddLine(ctx, p, 1)
	require.NoError(t, err)

	line := s.Lines()[0]
	require.Equal(t, "Keripik Baru", line.Name)
	require.Equal(t, int64(1500), line.Price)
	require.NotNil(t, line.Stock)
	require.Equal(t, 3, *line.Stock)
	require.Equal(t, 2, line.Quantity)
}

func TestTotal(t *testing.T) {
	ctx := context.Background()
	s := NewStore(newMemKV())
	_, err := s.AddLine(ctx, product(1, 10000, 10), 2)
	require.NoError(t, err)
	_, err = s.AddLine(ctx, product(2, 5000, 10), 1)
	require.NoError(t, err)

	require.Equal(t, int64(25000), s.Total())
	require.Equal(t, 3, s.Count())
}

func TestTotal_AfterMixedOperations(t *testing.T) {
	ctx := context.Background()
	s := NewStore(newMemKV())

	_, err := s.AddLine(ctx, product(1, 2500, 10), 3)
	require.NoError(t, err)
	_, err = s.AddLine(ctx, product(2, 4000, 2), 5)
	require.NoError(t, err)
	_, err = s.AddLine(ctx, product(3, 999, 4), 1)
	require.NoError(t, err)
	_, err = s.SetQuantity(ctx, 1, 7)
	require.NoError(t, err)
	require.NoError(t, s.RemoveLine(ctx, 3))

	var want int64
	for _, l := range s.Lines() {
		want += l.Price * int64(l.Quantity)
	}
	require.Equal(t, want, s.Total())
	require.Equal(t, int64(7*2500+2*4000), s.Total())
}

func TestRemoveLine_Absent(t *testing.T) {
	ctx := context.Background()
	s := NewStore(newMemKV())
	_, err := s.AddLine(ctx, product(1, 1000, 1), 1)
	require.NoError(t, err)

	require.NoError(t, s.RemoveLine(ctx, 42))
	require.Len(t, s.Lines(), 1)
}

func TestSetQuantity(t *testing.T) {
	ctx := context.Background()
	s := NewStore(newMemKV())
	_, err := s.AddLine(ctx, product(1, 1000, 3), 1)
	require.NoError(t, err)

	_, err = s.SetQuantity(ctx, 1, 0)
	require.ErrorIs(t, err, ErrValidation)

	_, err = s.SetQuantity(ctx, 9, 2)
	require.ErrorIs(t, err, ErrNotFound)

	line, err := s.SetQuantity(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 10, line.Quantity)
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	s := NewStore(kv)
	_, err := s.AddLine(ctx, product(1, 10000, 5), 2)
	require.NoError(t, err)

	reloaded := NewStore(kv)
	reloaded.Load(ctx)
	require.Equal(t, s.Lines(), reloaded.Lines())
	require.JSONEq(t,
		`[{"id":1,"name":"Keripik","price":10000,"quantity":2,"image":"/img.png","stock":5}]`,
		kv.data[storage.KeyCart])
}

func TestLoad_MalformedResets(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{`not json`, `{"id":1}`, `42`} {
		kv := newMemKV()
		kv.data[storage.KeyCart] = raw
		s := NewStore(kv)
		s.Load(ctx)
		assert.Empty(t, s.Lines(), raw)
	}

	s := NewStore(newMemKV())
	s.Load(ctx)
	require.Empty(t, s.Lines())
}

func TestLoad_InvalidLinesReset(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{
		`[{"id":1,"quantity":0}]`,
		`[{"id":2,"price":5000,"quantity":-3}]`,
		`[{"price":5000,"quantity":1}]`,
		`[{"id":1,"price":10000,"quantity":2},{"id":1,"price":10000,"quantity":1}]`,
		`[{"id":1,"quantity":0},{"id":2,"price":5000,"quantity":-3},{"id":1,"price":10000,"quantity":2}]`,
	} {
		kv := newMemKV()
		kv.data[storage.KeyCart] = raw
		s := NewStore(kv)
		s.Load(ctx)
		assert.Empty(t, s.Lines(), raw)
		assert.Zero(t, s.Total(), raw)
		assert.Zero(t, s.Count(), raw)
	}

	kv := newMemKV()
	kv.data[storage.KeyCart] = `[{"id":1,"price":10000,"quantity":2},{"id":2,"price":5000,"quantity":1}]`
	s := NewStore(kv)
	s.Load(ctx)
	require.Len(t, s.Lines(), 2)
	require.EqualValues(t, 25000, s.Total())

	_, err := s.AddLine(ctx, product(1, 10000, 10), 1)
	require.NoError(t, err)
	require.Len(t, s.Lines(), 2)
	require.Equal(t, 3, s.Lines()[0].Quantity)
}

func TestMutation_StorageFailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	s := NewStore(kv)
	_, err := s.AddLine(ctx, product(1, 1000, 5), 1)
	require.NoError(t, err)

	kv.failSet = true
	_, err = s.AddLine(ctx, product(2, 1000, 5), 1)
	require.Error(t, err)
	require.Error(t, s.Clear(ctx))
	require.Len(t, s.Lines(), 1)
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	s := NewStore(newMemKV())

	var got []Change
	cancel := s.Subscribe(func(c Change) { got = append(got, c) })

	_, err := s.AddLine(ctx, product(1, 1000, 5), 2)
	require.NoError(t, err)
	require.NoError(t, s.Clear(ctx))

	require.Len(t, got, 2)
	require.Equal(t, OpAdd, got[0].Op)
	require.Equal(t, int64(1), got[0].ProductID)
	require.Len(t, got[0].Lines, 1)
	require.Equal(t, OpClear, got[1].Op)
	require.Empty(t, got[1].Lines)

	cancel()
	_, err = s.AddLine(ctx, product(1, 1000, 5), 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
}
