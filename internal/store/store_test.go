package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caldesign/internal/model"
)

func newSeqStore() *EventStore {
	s := New()
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return s
}

func event(day int, title string, c model.Category) model.Event {
	return model.Event{Date: model.NewDate(2024, time.February, day), Title: title, Category: c}
}

func TestAddAssignsIDAndDerivedFields(t *testing.T) {
	s := New()

	got, err := s.Add(event(14, "Mom", model.CategoryBirthday))
	require.NoError(t, err)

	_, err = uuid.Parse(got.ID)
	assert.NoError(t, err)
	assert.Equal(t, "🎂", got.Icon)
	assert.Equal(t, model.CategoryBirthday.Color(), got.Color)
	assert.Equal(t, 1, s.Len())
}

func TestAddRejectsInvalid(t *testing.T) {
	s := New()
	_, err := s.Add(event(14, "", model.CategoryEvent))
	assert.Error(t, err)
	_, err = s.Add(event(30, "bad day", model.CategoryEvent))
	assert.Error(t, err)
	assert.Zero(t, s.Len())
}

func TestRemoveByID(t *testing.T) {
	s := newSeqStore()
	for i, title := range []string{"a", "b", "c"} {
		_, err := s.Add(event(i+1, title, model.CategoryEvent))
		require.NoError(t, err)
	}

	assert.True(t, s.Remove("id-2"))
	assert.False(t, s.Remove("id-2"))

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "a", snap[0].Title)
	assert.Equal(t, "c", snap[1].Title)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := newSeqStore()
	_, err := s.Add(event(1, "a", model.CategoryEvent))
	require.NoError(t, err)

	snap := s.Snapshot()
	snap[0].Title = "mutated"

	got, ok := s.Get("id-1")
	require.True(t, ok)
	assert.Equal(t, "a", got.Title)
}

func TestReplaceSource(t *testing.T) {
	s := newSeqStore()
	_, err := s.Add(event(1, "manual", model.CategoryEvent))
	require.NoError(t, err)

	added, skipped := s.ReplaceSource("feed", []model.Event{
		event(2, "imported 1", model.CategoryHoliday),
		event(3, "", model.CategoryHoliday),
	})
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, skipped)

	added, _ = s.ReplaceSource("feed", []model.Event{
		event(4, "imported 2", model.CategoryHoliday),
		event(5, "imported 3", model.CategoryTechTalk),
	})
	assert.Equal(t, 2, added)

	snap := s.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "manual", snap[0].Title)
	assert.Empty(t, snap[0].Source)
	assert.Equal(t, "imported 2", snap[1].Title)
	assert.Equal(t, "feed", snap[1].Source)
	assert.Equal(t, "🎉", snap[1].Icon)
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, _ = s.Add(event(i%28+1, "x", model.CategoryEvent))
		}(i)
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, s.Len())
}
