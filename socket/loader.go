package socket

import (
	"context"
	"fmt"

	"propdesk/pkg/docstore"
	"propdesk/store"
)

// DocstoreLoader serves room snapshots straight from the document store.
// Only the listed collections can be subscribed to.
type DocstoreLoader struct {
	Docs        *docstore.Store
	Collections map[string]bool
}

func (l DocstoreLoader) Snapshot(ctx context.Context, collection string) ([]store.Record, error) {
	if !l.Collections[collection] {
		return nil, fmt.Errorf("unknown collection %q", collection)
	}
	docs, err := l.Docs.List(ctx, collection)
	if err != nil {
		return nil, err
	}
	records := make([]store.Record, 0, len(docs))
	for _, d := range docs {
		records = append(records, store.Record{ID: d.ID, Data: d.Data})
	}
	return records, nil
}
