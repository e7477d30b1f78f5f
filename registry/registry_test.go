package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreIdsStartAtOne(t *testing.T) {
	s := NewStore[string]()
	assert.Equal(t, uint64(1), s.Insert("a"))
	assert.Equal(t, uint64(2), s.Insert("b"))
	assert.Equal(t, uint64(3), s.Insert("c"))
}

func TestStoreIdsNotReused(t *testing.T) {
	s := NewStore[string]()
	s.Insert("a")
	id := s.Insert("b")
	require.True(t, s.Erase(id))
	assert.Equal(t, uint64(3), s.Insert("c"))
}

func TestStoreGetAndErase(t *testing.T) {
	s := NewStore[int]()
	id := s.Insert(42)

	v, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	assert.True(t, s.Erase(id))
	assert.False(t, s.Erase(id))

	_, err = s.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestStoreEditMissing(t *testing.T) {
	s := NewStore[int]()
	err := s.Edit(7, func(int) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreInterleavedInsertErase(t *testing.T) {
	s := NewStore[int]()
	var ids []uint64
	for i := 0; i < 100; i++ {
		ids = append(ids, s.Insert(i))
	}
	for i := 0; i < 100; i += 2 {
		require.True(t, s.Erase(ids[i]))
	}
	for i := 1; i < 100; i += 2 {
		v, err := s.Get(ids[i])
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	assert.Equal(t, 50, s.Len())
}

func TestStoreConcurrentEdit(t *testing.T) {
	s := NewStore[*int]()
	var ids []uint64
	for i := 0; i < 8; i++ {
		n := 0
		ids = append(ids, s.Insert(&n))
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func(id uint64) {
				defer wg.Done()
				for i := 0; i < 250; i++ {
					_ = s.Edit(id, func(p *int) error {
						*p++
						return nil
					})
				}
			}(id)
		}
	}
	wg.Wait()

	for _, id := range ids {
		v, err := s.Get(id)
		require.NoError(t, err)
		assert.Equal(t, 1000, *v)
	}
}

func TestStoreConcurrentInsertErase(t *testing.T) {
	s := NewStore[int]()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				id := s.Insert(i)
				if i%2 == 0 {
					s.Erase(id)
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 400, s.Len())
}

func TestLabelStoreUniqueLabels(t *testing.T) {
	s := NewLabelStore[int]()
	require.NoError(t, s.Insert("a", 1))
	assert.Error(t, s.Insert("a", 2))

	v, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = s.Get("b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLabelStoreGetOrInsert(t *testing.T) {
	s := NewLabelStore[int]()
	calls := 0
	factory := func() (int, error) {
		calls++
		return 9, nil
	}

	v, err := s.GetOrInsert("x", factory)
	require.NoError(t, err)
	assert.Equal(t, 9, v)

	v, err = s.GetOrInsert("x", factory)
	require.NoError(t, err)
	assert.Equal(t, 9, v)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, s.Len())
}

func TestLabelStoreGetOrInsertConcurrent(t *testing.T) {
	s := NewLabelStore[*int]()
	var mu sync.Mutex
	calls := 0

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.GetOrInsert("shared", func() (*int, error) {
				mu.Lock()
				calls++
				mu.Unlock()
				n := 0
				return &n, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, s.Len())
}
