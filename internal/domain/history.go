package domain

import (
	"context"
	"strings"
)

// HistoryService searches stored records and hands a selection to the session.
type HistoryService struct {
	store   RecordStore
	session *SessionService
}

// NewHistoryService creates a new history service (DI constructor).
func NewHistoryService(store RecordStore, session *SessionService) *HistoryService {
	return &HistoryService{
		store:   store,
		session: session,
	}
}

// Search returns the records matching every whitespace-separated keyword, in store order.
func (h *HistoryService) Search(_ context.Context, keywords string) []Record {
	return FilterRecords(h.store.Items(), keywords)
}

// Find returns the record with the given id.
func (h *HistoryService) Find(_ context.Context, id string) (Record, error) {
	for _, record := range h.store.Items() {
		if record.ID == id {
			return record, nil
		}
	}
	return Record{}, ErrRecordNotFound
}

// Open loads the record with the given id into the session, editable ("edit")
// or as a fresh prompt ("clone").
func (h *HistoryService) Open(ctx context.Context, id string, editable bool) (Record, error) {
	record, err := h.Find(ctx, id)
	if err != nil {
		return Record{}, err
	}

	h.session.Load(ctx, record, editable)
	return record, nil
}

// FilterRecords keeps the records where each keyword is a case-sensitive
// substring of the prompt or the completion. No keywords matches everything.
func FilterRecords(records []Record, keywords string) []Record {
	words := strings.Fields(keywords)

	matches := make([]Record, 0, len(records))
	for _, record := range records {
		if matchesAll(record, words) {
			matches = append(matches, record)
		}
	}
	return matches
}

func matchesAll(record Record, words []string) bool {
	for _, word := range words {
		if !strings.Contains(record.Prompt, word) && !strings.Contains(record.Completion, word) {
			return false
		}
	}
	return true
}

// Summary renders a record as a single line: prompt and completion with
// newlines flattened, followed by rating and star markers.
func Summary(record Record) string {
	var b strings.Builder
	b.WriteString(strings.ReplaceAll(record.Prompt, "\n", " "))
	b.WriteString(" | ")
	b.WriteString(strings.ReplaceAll(record.Completion, "\n", " "))
	if record.Rating != nil {
		b.WriteString(" [")
		b.WriteString(string(*record.Rating))
		b.WriteString("]")
	}
	if record.Starred() {
		b.WriteString(" [star]")
	}
	return b.String()
}
