package federation

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SortOrder selects the primary sort field of a federated search.
type SortOrder string

const (
	SortName   SortOrder = "name"
	SortRecent SortOrder = "recent"
	SortActive SortOrder = "active"
)

func (s SortOrder) Valid() bool {
	switch s {
	case SortName, SortRecent, SortActive:
		return true
	}
	return false
}

// mergeKey is the stable composite sort key used to merge results from
// independent tenants. The primary field orders records; (tenant_id,
// record_id) breaks ties so that successive paginated calls, each of which
// re-queries every tenant, see one deterministic total order.
type mergeKey struct {
	name     string
	ts       time.Time
	tenantID string
	recordID string
}

func newMergeKey(name string, ts time.Time, tenantID, recordID uuid.UUID) mergeKey {
	return mergeKey{
		name:     strings.ToLower(name),
		ts:       ts,
		tenantID: tenantID.String(),
		recordID: recordID.String(),
	}
}

// less orders two keys under the given sort. Name sorts ascending; the time
// sorts (recent, active) order newest first.
func (k mergeKey) less(other mergeKey, order SortOrder) bool {
	switch order {
	case SortName:
		if k.name != other.name {
			return k.name < other.name
		}
	default:
		if !k.ts.Equal(other.ts) {
			return k.ts.After(other.ts)
		}
	}
	if k.tenantID != other.tenantID {
		return k.tenantID < other.tenantID
	}
	return k.recordID < other.recordID
}

// record is one merged search result paired with its sort key.
type record struct {
	item any
	key  mergeKey
}

func sortRecords(records []record, order SortOrder) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].key.less(records[j].key, order)
	})
}

// paginate slices the merged sequence to [offset, offset+limit). hasMore is
// true when records exist past the window. Offsets past the end yield an
// empty page, not an error.
func paginate(records []record, offset, limit int) (items []any, hasMore bool) {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(records) {
		return []any{}, false
	}

	end := len(records)
	if limit > 0 && offset+limit < end {
		end = offset + limit
		hasMore = true
	}

	items = make([]any, 0, end-offset)
	for _, r := range records[offset:end] {
		items = append(items, r.item)
	}
	return items, hasMore
}
