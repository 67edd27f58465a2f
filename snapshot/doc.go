// Package snapshot persists and restores the book's resting state so a
// restart does not have to replay the whole journal. A snapshot records
// every live order level by level, head to tail; restoring replays them
// through Book.Restore, then the journal tail is applied on top.
package snapshot
