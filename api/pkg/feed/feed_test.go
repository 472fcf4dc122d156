package feed

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedwire/feedwire/api/pkg/types"
)

func TestApplyCreate(t *testing.T) {
	f := New()

	mut := f.Apply(types.Message{ID: "1", Author: "Al", Text: "hi", Timestamp: 100})
	require.Equal(t, types.MutationAppended, mut)

	msgs := f.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Al", msgs[0].Author)
	assert.Equal(t, "hi", msgs[0].Text)
}

func TestApplyIdempotent(t *testing.T) {
	f := New()
	msg := types.Message{ID: "1", Author: "Al", Text: "hi", Timestamp: 100}

	first := f.Apply(msg)
	require.Equal(t, types.MutationAppended, first)
	after := f.Messages()

	second := f.Apply(msg)
	require.Equal(t, types.MutationUpdated, second)

	assert.Equal(t, after, f.Messages(), "re-applying the same event must not change the collection")
	assert.Equal(t, 1, f.Len())
}

func TestDedupeAcrossSnapshotAndStream(t *testing.T) {
	f := New()
	f.Seed([]types.Message{{ID: "1", Author: "Al", Text: "hi", Timestamp: 100}})

	mut := f.Apply(types.Message{ID: "1", Author: "Al", Text: "hi", Timestamp: 100})
	require.Equal(t, types.MutationUpdated, mut)

	require.Equal(t, 1, f.Len())
	got, ok := f.Get("1")
	require.True(t, ok)
	assert.Equal(t, "hi", got.Text)
}

func TestEditInPlacePreservesPosition(t *testing.T) {
	f := New()
	f.Seed([]types.Message{
		{ID: "1", Author: "A", Text: "a"},
		{ID: "2", Author: "B", Text: "b"},
		{ID: "3", Author: "C", Text: "c"},
	})

	mut := f.Apply(types.Message{ID: "2", Author: "B", Text: "edited"})
	require.Equal(t, types.MutationUpdated, mut)

	msgs := f.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "1", msgs[0].ID)
	assert.Equal(t, "2", msgs[1].ID)
	assert.Equal(t, "3", msgs[2].ID)
	assert.Equal(t, "edited", msgs[1].Text)
	assert.Equal(t, "a", msgs[0].Text)
	assert.Equal(t, "c", msgs[2].Text)
}

func TestNoIDEventsAlwaysAppend(t *testing.T) {
	f := New()

	first := f.Apply(types.Message{Author: "legacy", Text: "one"})
	second := f.Apply(types.Message{Author: "legacy", Text: "one"})

	require.Equal(t, types.MutationAppended, first)
	require.Equal(t, types.MutationAppended, second)
	assert.Equal(t, 2, f.Len(), "identical no-id events must never merge")
}

func TestOrderPreservation(t *testing.T) {
	f := New()

	for i := 0; i < 10; i++ {
		f.Apply(types.Message{ID: fmt.Sprintf("id-%d", i), Author: "x", Text: fmt.Sprintf("m%d", i)})
	}

	msgs := f.Messages()
	require.Len(t, msgs, 10)
	for i, msg := range msgs {
		assert.Equal(t, fmt.Sprintf("id-%d", i), msg.ID)
	}
}

func TestTrackerSuppressionWithoutMaterialisation(t *testing.T) {
	// The bidirectional-socket variant seeds its tracker independently of
	// the collection; redelivery of a tracked-but-unmaterialised ID must be
	// silently dropped.
	f := New()
	f.Track("x")

	mut := f.Apply(types.Message{ID: "x", Author: "Al", Text: "first"})
	require.Equal(t, types.MutationDiscarded, mut)
	assert.Equal(t, 0, f.Len())

	_, ok := f.Get("x")
	assert.False(t, ok)
}

func TestTrackIgnoresEmptyIDs(t *testing.T) {
	f := New()
	f.Track("", "a")

	// An empty ID must never enter the tracker, otherwise no-id events
	// would start being suppressed.
	mut := f.Apply(types.Message{Author: "legacy", Text: "anon"})
	require.Equal(t, types.MutationAppended, mut)
	assert.Equal(t, 1, f.Len())
}

func TestSnapshotRedeliveryScenario(t *testing.T) {
	// Snapshot holds {a}; the stream then redelivers {a} and delivers {b}.
	// The redelivery must produce zero net change.
	f := New()
	f.Seed([]types.Message{{ID: "a", Author: "Al", Text: "hi", Timestamp: 100}})

	f.Apply(types.Message{ID: "a", Author: "Al", Text: "hi", Timestamp: 100})
	f.Apply(types.Message{ID: "b", Author: "Bo", Text: "yo", Timestamp: 105})

	msgs := f.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "a", msgs[0].ID)
	assert.Equal(t, "b", msgs[1].ID)
	assert.Equal(t, "hi", msgs[0].Text)
	assert.Equal(t, "yo", msgs[1].Text)
}

func TestCreateThenEditScenario(t *testing.T) {
	f := New()

	f.Apply(types.Message{ID: "x", Author: "Al", Text: "first"})
	f.Apply(types.Message{ID: "x", Author: "Al", Text: "first-edited"})

	msgs := f.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "x", msgs[0].ID)
	assert.Equal(t, "first-edited", msgs[0].Text)
}

func TestEditReplacesAllFields(t *testing.T) {
	f := New()
	f.Seed([]types.Message{{ID: "1", Author: "Al", Text: "hi", Timestamp: 100}})

	// Both transports re-broadcast the full message on edit, so the whole
	// entry is replaced, not just the text.
	f.Apply(types.Message{ID: "1", Author: "Al", Text: "hi!", Timestamp: 160})

	got, ok := f.Get("1")
	require.True(t, ok)
	assert.Equal(t, "hi!", got.Text)
	assert.Equal(t, int64(160), got.Timestamp)
}

func TestSeedToleratesDuplicateIDs(t *testing.T) {
	f := New()
	f.Seed([]types.Message{
		{ID: "1", Author: "Al", Text: "hi"},
		{ID: "1", Author: "Al", Text: "hi again"},
	})

	require.Equal(t, 1, f.Len())
	got, _ := f.Get("1")
	assert.Equal(t, "hi again", got.Text)
}

func TestMessagesReturnsCopy(t *testing.T) {
	f := New()
	f.Apply(types.Message{ID: "1", Author: "Al", Text: "hi"})

	msgs := f.Messages()
	msgs[0].Text = "mutated"

	got, _ := f.Get("1")
	assert.Equal(t, "hi", got.Text)
}
