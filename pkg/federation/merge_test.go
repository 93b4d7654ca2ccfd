package federation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyedRecord(name string, ts time.Time) record {
	key := newMergeKey(name, ts, uuid.New(), uuid.New())
	return record{item: name, key: key}
}

func TestMergeKeyNameOrderCaseInsensitive(t *testing.T) {
	now := time.Now()
	records := []record{
		keyedRecord("charlie", now),
		keyedRecord("Alice", now),
		keyedRecord("bob", now),
	}

	sortRecords(records, SortName)

	assert.Equal(t, "Alice", records[0].item)
	assert.Equal(t, "bob", records[1].item)
	assert.Equal(t, "charlie", records[2].item)
}

func TestMergeKeyRecentOrderNewestFirst(t *testing.T) {
	now := time.Now()
	records := []record{
		keyedRecord("old", now.Add(-2*time.Hour)),
		keyedRecord("new", now),
		keyedRecord("mid", now.Add(-time.Hour)),
	}

	sortRecords(records, SortRecent)

	assert.Equal(t, "new", records[0].item)
	assert.Equal(t, "mid", records[1].item)
	assert.Equal(t, "old", records[2].item)
}

func TestMergeKeyTieBreakIsDeterministic(t *testing.T) {
	now := time.Now()
	tenantA := uuid.New()
	tenantB := uuid.New()
	recordID := uuid.New()

	a := record{item: "a", key: newMergeKey("same", now, tenantA, recordID)}
	b := record{item: "b", key: newMergeKey("same", now, tenantB, recordID)}

	first := []record{a, b}
	second := []record{b, a}
	sortRecords(first, SortName)
	sortRecords(second, SortName)

	assert.Equal(t, first[0].item, second[0].item)
	assert.Equal(t, first[1].item, second[1].item)
}

func TestPaginateCoversSequenceWithoutDuplication(t *testing.T) {
	now := time.Now()
	records := make([]record, 0, 25)
	for i := 0; i < 25; i++ {
		records = append(records, keyedRecord(string(rune('a'+i)), now))
	}
	sortRecords(records, SortName)

	seen := make(map[any]bool)
	offset := 0
	for {
		items, hasMore := paginate(records, offset, 10)
		for _, item := range items {
			assert.False(t, seen[item], "item %v returned twice", item)
			seen[item] = true
		}
		offset += len(items)
		if !hasMore {
			break
		}
	}

	assert.Len(t, seen, 25)
}

func TestPaginateHasMore(t *testing.T) {
	now := time.Now()
	records := []record{
		keyedRecord("a", now),
		keyedRecord("b", now),
		keyedRecord("c", now),
	}

	items, hasMore := paginate(records, 0, 2)
	require.Len(t, items, 2)
	assert.True(t, hasMore)

	items, hasMore = paginate(records, 2, 2)
	require.Len(t, items, 1)
	assert.False(t, hasMore)
}

func TestPaginatePastEndReturnsEmptyPage(t *testing.T) {
	now := time.Now()
	records := []record{keyedRecord("a", now)}

	items, hasMore := paginate(records, 10, 5)
	assert.Empty(t, items)
	assert.False(t, hasMore)

	items, hasMore = paginate(nil, 0, 5)
	assert.Empty(t, items)
	assert.False(t, hasMore)
}

func TestSortOrderValid(t *testing.T) {
	assert.True(t, SortName.Valid())
	assert.True(t, SortRecent.Valid())
	assert.True(t, SortActive.Valid())
	assert.False(t, SortOrder("alphabetical").Valid())
	assert.False(t, SortOrder("").Valid())
}
