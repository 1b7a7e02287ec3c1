package export

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type download struct {
	payload   []byte
	filename  string
	expiresAt time.Time
}

// DownloadStore keeps generated workbooks in memory behind one-time download
// tokens until they expire.
type DownloadStore struct {
	mu    sync.Mutex
	items map[string]download
}

// NewDownloadStore creates an empty token registry.
func NewDownloadStore() *DownloadStore {
	return &DownloadStore{items: make(map[string]download)}
}

// Put registers a payload and returns its download token.
func (s *DownloadStore) Put(payload []byte, filename string, ttl time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(time.Now())

	token := uuid.NewString()
	s.items[token] = download{
		payload:   payload,
		filename:  filename,
		expiresAt: time.Now().Add(ttl),
	}
	return token
}

// Take retrieves and removes the payload for a token. Expired or unknown
// tokens miss.
func (s *DownloadStore) Take(token string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(time.Now())

	d, ok := s.items[token]
	if !ok {
		return nil, "", false
	}
	delete(s.items, token)
	return d.payload, d.filename, true
}

func (s *DownloadStore) purgeExpiredLocked(now time.Time) {
	for token, d := range s.items {
		if now.After(d.expiresAt) {
			delete(s.items, token)
		}
	}
}
