package prompt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requireMergedRace 断言条目是命名分组合并标记，返回其竞速成员
func requireMergedRace(t *testing.T, entry Loader, group string) []Loader {
	t.Helper()
	m, ok := entry.(*MergedGroup)
	require.True(t, ok, "expected *MergedGroup, got %T", entry)
	assert.Equal(t, group, m.Group)
	r, ok := m.Unwrap().(*raceLoader)
	require.True(t, ok, "expected merged group to wrap a race loader, got %T", m.Unwrap())
	return r.loaders
}

// ═══════════════════════════════════════════════════════════════════════════
// ComposeLoaders Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestComposeLoaders_PlainChildFirst(t *testing.T) {
	p1 := NewStringLoader("p1", "")
	c1 := NewStringLoader("c1", "")

	got := ComposeLoaders([]Loader{p1}, []Loader{c1})

	assert.Equal(t, []Loader{c1, p1}, got)
}

func TestComposeLoaders_NamedGroupTwoLevels(t *testing.T) {
	l1 := NewStringLoader("l1", "")
	l2 := NewStringLoader("l2", "")
	l3 := NewStringLoader("l3", "")

	got := ComposeLoaders(
		[]Loader{NamedRace("g", l1, l2)},
		[]Loader{NamedRace("g", l3)},
	)

	// 同名分组收拢为一场竞速：子级成员在前
	require.Len(t, got, 1)
	members := requireMergedRace(t, got[0], "g")
	assert.Equal(t, []Loader{l3, l1, l2}, members)
}

func TestComposeLoaders_NamedGroupThreeLevels(t *testing.T) {
	l1 := NewStringLoader("l1", "")
	l2 := NewStringLoader("l2", "")
	l3 := NewStringLoader("l3", "")

	// 两两合并前推：merge(祖父, 父) 的结果作为下一级的父链
	level1 := ComposeLoaders(
		[]Loader{NamedRace("g", l1)},
		[]Loader{NamedRace("g", l2)},
	)
	require.Len(t, level1, 1)

	level2 := ComposeLoaders(level1, []Loader{NamedRace("g", l3)})

	// 合并标记被重新打开并摊平，三层合并后仍是一场平坦的竞速
	require.Len(t, level2, 1)
	members := requireMergedRace(t, level2[0], "g")
	assert.Equal(t, []Loader{l3, l2, l1}, members)
}

func TestComposeLoaders_AnonymousGroupsNeverMerge(t *testing.T) {
	l1 := NewStringLoader("l1", "")
	l2 := NewStringLoader("l2", "")

	got := ComposeLoaders(
		[]Loader{Race(l1)},
		[]Loader{Race(l2)},
	)

	require.Len(t, got, 2)
	for _, entry := range got {
		_, ok := entry.(*raceLoader)
		assert.True(t, ok, "anonymous group should become a race loader, got %T", entry)
	}
}

func TestComposeLoaders_DistinctNamedGroupsStaySeparate(t *testing.T) {
	l1 := NewStringLoader("l1", "")
	l2 := NewStringLoader("l2", "")

	got := ComposeLoaders(
		[]Loader{NamedRace("a", l1)},
		[]Loader{NamedRace("b", l2)},
	)

	require.Len(t, got, 2)
	requireMergedRace(t, got[0], "b") // 子链在前
	requireMergedRace(t, got[1], "a")
}

func TestComposeLoaders_FirstSeenPositionWins(t *testing.T) {
	plain := NewStringLoader("plain", "")
	l1 := NewStringLoader("l1", "")
	l2 := NewStringLoader("l2", "")

	got := ComposeLoaders(
		[]Loader{NamedRace("g", l2)},
		[]Loader{NamedRace("g", l1), plain},
	)

	// 合成的竞速放在分组首次出现的位置，后续占位丢弃
	require.Len(t, got, 2)
	members := requireMergedRace(t, got[0], "g")
	assert.Equal(t, []Loader{l1, l2}, members)
	assert.Same(t, plain, got[1])
}

func TestComposeLoaders_EmptyNamedGroupDropped(t *testing.T) {
	got := ComposeLoaders(
		[]Loader{NamedRace("g")},
		[]Loader{NamedRace("g")},
	)

	assert.Empty(t, got)
}

func TestComposeLoaders_NilEntriesFiltered(t *testing.T) {
	l1 := NewStringLoader("l1", "")

	got := ComposeLoaders(
		[]Loader{nil, l1},
		[]Loader{NamedRace("g", nil, NewStringLoader("l2", ""))},
	)

	require.Len(t, got, 2)
	members := requireMergedRace(t, got[0], "g")
	assert.Len(t, members, 1)
	assert.Same(t, l1, got[1])
}

func TestComposeLoaders_NoDedupInsideGroups(t *testing.T) {
	shared := NewStringLoader("shared", "")

	got := ComposeLoaders(
		[]Loader{NamedRace("g", shared)},
		[]Loader{NamedRace("g", shared)},
	)

	require.Len(t, got, 1)
	members := requireMergedRace(t, got[0], "g")
	assert.Len(t, members, 2)
}

// ═══════════════════════════════════════════════════════════════════════════
// NormalizeChain / Flatten Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestNormalizeChain(t *testing.T) {
	l1 := NewStringLoader("l1", "")
	l2 := NewStringLoader("l2", "")

	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, NormalizeChain(nil))
	})

	t.Run("single_loader", func(t *testing.T) {
		assert.Equal(t, []Loader{l1}, NormalizeChain(l1))
	})

	t.Run("single_group", func(t *testing.T) {
		g := NamedRace("g", l1)
		assert.Equal(t, []Loader{g}, NormalizeChain(g))
	})

	t.Run("loader_slice_cloned", func(t *testing.T) {
		in := []Loader{l1, l2}
		got := NormalizeChain(in)

		require.Equal(t, in, got)
		got[0] = l2
		assert.Same(t, l1, in[0])
	})

	t.Run("any_slice_skips_non_loaders", func(t *testing.T) {
		got := NormalizeChain([]any{l1, "not a loader", l2})
		assert.Equal(t, []Loader{l1, l2}, got)
	})

	t.Run("unknown_value", func(t *testing.T) {
		assert.Nil(t, NormalizeChain(42))
	})
}

func TestFlatten(t *testing.T) {
	l1 := NewStringLoader("l1", "")
	race := newRaceLoader([]Loader{NewStringLoader("l2", "")})

	got := Flatten([]Loader{&MergedGroup{Group: "g", Loader: race}, l1})

	require.Len(t, got, 2)
	assert.Same(t, race, got[0])
	assert.Same(t, l1, got[1])
}

// ═══════════════════════════════════════════════════════════════════════════
// Race Execution Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestRaceLoader_FirstSuccessWins(t *testing.T) {
	fast := NewStringLoader("fast", "fast wins")
	slow := LoaderFunc(func(ctx context.Context) (string, error) {
		select {
		case <-time.After(5 * time.Second):
			return "slow", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})

	got, err := newRaceLoader([]Loader{slow, fast}).Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "fast wins", got)
}

func TestRaceLoader_FailureDoesNotWin(t *testing.T) {
	failing := LoaderFunc(func(ctx context.Context) (string, error) {
		return "", errors.New("boom")
	})
	ok := LoaderFunc(func(ctx context.Context) (string, error) {
		time.Sleep(20 * time.Millisecond)
		return "eventually", nil
	})

	got, err := newRaceLoader([]Loader{failing, ok}).Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "eventually", got)
}

func TestRaceLoader_AllFailuresJoined(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	mk := func(err error) Loader {
		return LoaderFunc(func(ctx context.Context) (string, error) { return "", err })
	}

	_, err := newRaceLoader([]Loader{mk(errA), mk(errB)}).Load(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestRaceLoader_LosersCancelled(t *testing.T) {
	cancelled := make(chan struct{})
	loser := LoaderFunc(func(ctx context.Context) (string, error) {
		<-ctx.Done()
		close(cancelled)
		return "", ctx.Err()
	})

	got, err := Race(NewStringLoader("winner", "won"), loser).Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "won", got)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("losing branch was not cancelled")
	}
}

func TestRaceLoader_Empty(t *testing.T) {
	_, err := newRaceLoader(nil).Load(context.Background())

	assert.ErrorIs(t, err, ErrEmptyRace)
}

func TestMergedGroup_Load(t *testing.T) {
	t.Run("delegates_to_wrapped", func(t *testing.T) {
		m := &MergedGroup{Group: "g", Loader: NewStringLoader("l", "content")}

		got, err := m.Load(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "content", got)
	})

	t.Run("nil_wrapped", func(t *testing.T) {
		m := &MergedGroup{Group: "g"}

		_, err := m.Load(context.Background())

		assert.ErrorIs(t, err, ErrEmptyRace)
	})
}
