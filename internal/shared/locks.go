package shared

import "fmt"

// ImportLockKey builds the redis key guarding a POS day import.
func ImportLockKey(day string) string {
	return fmt.Sprintf("kitchenboard:lock:pos-import:%s", day)
}

// BackfillLockKey is the redis key guarding range backfills. One backfill
// runs at a time across all workers.
const BackfillLockKey = "kitchenboard:lock:pos-backfill"
