package intake

import (
	"fmt"
	"sync"
)

type StoreOptions struct {
	MaxFiles int
}

// Store keeps the files each chat has staged but not yet submitted. It holds
// no conversation history; a submission drains the chat's files.
type Store struct {
	mu       sync.Mutex
	chats    map[int64]*Collection
	maxFiles int
}

func NewStore(opts StoreOptions) *Store {
	maxFiles := opts.MaxFiles
	if maxFiles <= 0 {
		maxFiles = 8
	}

	return &Store{
		chats:    make(map[int64]*Collection),
		maxFiles: maxFiles,
	}
}

// Add stages a file for the chat and returns the new staged count.
func (s *Store) Add(chatID int64, f File) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll := s.getOrCreateLocked(chatID)
	if coll.Len() >= s.maxFiles {
		return coll.Len(), fmt.Errorf("%w (max %d)", ErrTooManyFiles, s.maxFiles)
	}
	if err := coll.Add(f); err != nil {
		return coll.Len(), err
	}
	return coll.Len(), nil
}

// Remove drops the staged file at the given position.
func (s *Store) Remove(chatID int64, i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getOrCreateLocked(chatID).RemoveAt(i)
}

// Snapshot returns a copy of the chat's staged files without draining them.
func (s *Store) Snapshot(chatID int64) []File {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getOrCreateLocked(chatID).Files()
}

// Take drains and returns the chat's staged files for submission.
func (s *Store) Take(chatID int64) []File {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.chats[chatID]
	if !ok {
		return nil
	}
	files := coll.Files()
	delete(s.chats, chatID)
	return files
}

func (s *Store) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.chats, chatID)
}

func (s *Store) Count(chatID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.chats[chatID]
	if !ok {
		return 0
	}
	return coll.Len()
}

func (s *Store) getOrCreateLocked(chatID int64) *Collection {
	if coll, ok := s.chats[chatID]; ok {
		return coll
	}
	coll := &Collection{}
	s.chats[chatID] = coll
	return coll
}
