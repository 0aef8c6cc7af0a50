package storage

// Store is the on-device persistent key/value store shared by the attempt
// stores, the daily-games store and the session snapshot. Each consumer
// owns a disjoint key, and every write is a full self-consistent snapshot
// (last writer wins), never a partial patch.
type Store interface {
	// Get returns the stored value for key; ok is false when absent.
	Get(key string) (value []byte, ok bool, err error)
	// Put replaces the value for key.
	Put(key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
}

// Storage keys. No two consumers share a key.
const (
	KeySession       = "session"        // persisted UserSession snapshot
	KeyAttempts      = "attempts"       // server attempts mirror + allAttemptsFetched flag
	KeyGuestAttempts = "guest_attempts" // local guest attempts snapshot
	KeyDailyGames    = "daily_games"    // daily game bundles (msgpack)
	KeyLastDay       = "last_day"       // day-rollover marker
	KeyDeviceID      = "device_id"      // per-install guest identity
	KeyAccessToken   = "access_token"
	KeyRefreshToken  = "refresh_token"
)
