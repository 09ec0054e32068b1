// Package mediagroup collects the pieces of a Telegram album, which arrive as
// separate updates, into one group before they are staged.
package mediagroup

import (
	"fmt"
	"sync"
	"time"
)

type FileRef struct {
	FileID   string
	FileName string
	MIMEType string
}

type Item struct {
	ChatID       int64
	MediaGroupID string
	Caption      string
	File         FileRef
}

type Group struct {
	ChatID  int64
	Caption string
	Files   []FileRef
}

type Options struct {
	Debounce time.Duration
	OnFlush  func(Group)
}

type Aggregator struct {
	mu       sync.Mutex
	debounce time.Duration
	onFlush  func(Group)
	groups   map[string]*pendingGroup
}

type pendingGroup struct {
	group Group
	timer *time.Timer
}

func New(opts Options) *Aggregator {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 1200 * time.Millisecond
	}

	return &Aggregator{
		debounce: debounce,
		onFlush:  opts.OnFlush,
		groups:   make(map[string]*pendingGroup),
	}
}

// Add records one album item and restarts the group's debounce timer. The
// group flushes once no new item has arrived for the debounce window. The
// last non-empty caption in the album wins.
func (a *Aggregator) Add(item Item) {
	if item.MediaGroupID == "" || item.File.FileID == "" {
		return
	}

	key := makeKey(item.ChatID, item.MediaGroupID)

	a.mu.Lock()
	defer a.mu.Unlock()

	pg, ok := a.groups[key]
	if !ok {
		pg = &pendingGroup{
			group: Group{
				ChatID:  item.ChatID,
				Caption: item.Caption,
				Files:   []FileRef{item.File},
			},
		}
		a.groups[key] = pg
	} else {
		pg.group.Files = append(pg.group.Files, item.File)
		if item.Caption != "" {
			pg.group.Caption = item.Caption
		}
	}

	if pg.timer != nil {
		pg.timer.Stop()
	}
	pg.timer = time.AfterFunc(a.debounce, func() {
		a.flush(key)
	})
}

func (a *Aggregator) flush(key string) {
	a.mu.Lock()
	pg, ok := a.groups[key]
	if !ok {
		a.mu.Unlock()
		return
	}
	delete(a.groups, key)
	group := pg.group
	onFlush := a.onFlush
	a.mu.Unlock()

	if onFlush != nil {
		onFlush(group)
	}
}

func makeKey(chatID int64, mediaGroupID string) string {
	return fmt.Sprintf("%d:%s", chatID, mediaGroupID)
}
