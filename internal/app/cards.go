package app

import (
	"sync"

	"github.com/moxalise/aidmap/internal/domain"
)

// Card is the sidebar view state for one record.
type Card struct {
	RecordID    string `json:"recordId"`
	District    string `json:"district"`
	Village     string `json:"village"`
	Status      string `json:"status"`
	Class       string `json:"class"`
	Color       string `json:"color"`
	Highlighted bool   `json:"highlighted"`
	// ScrolledIntoView marks the card the sidebar should bring on screen.
	ScrolledIntoView bool `json:"scrolledIntoView"`
}

// CardList is the sidebar collection, rebuilt on every data load.
type CardList struct {
	mu    sync.Mutex
	cards []Card
	index map[string]int
}

// NewCardList builds one card per reportable record, in record order.
func NewCardList(records []domain.Record) *CardList {
	l := &CardList{index: map[string]int{}}
	for _, rec := range records {
		l.index[rec.ID] = len(l.cards)
		l.cards = append(l.cards, Card{
			RecordID: rec.ID,
			District: rec.District,
			Village:  rec.Village,
			Status:   rec.Status,
			Class:    domain.CardClass(rec.Status, rec.Priority),
			Color:    domain.ResolveColor(rec.Status, rec.Priority),
		})
	}
	return l
}

// ApplyHighlight marks the card matching id, scrolls it into view, and
// clears the rest. The empty id clears all.
func (l *CardList) ApplyHighlight(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.cards {
		match := id != "" && l.cards[i].RecordID == id
		l.cards[i].Highlighted = match
		l.cards[i].ScrolledIntoView = match
	}
}

// Cards returns a copy in record order.
func (l *CardList) Cards() []Card {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Card{}, l.cards...)
}

// Highlighted reports the highlighted record id, or "".
func (l *CardList) Highlighted() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.cards {
		if c.Highlighted {
			return c.RecordID
		}
	}
	return ""
}
