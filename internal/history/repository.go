package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Simplici0/laserquote/internal/store"
)

// ErrTemplateNotFound is returned when a template id is unknown.
var ErrTemplateNotFound = errors.New("template not found")

// Repository reads and writes history and templates as JSON blobs in a key/value store.
// Read-modify-write operations are serialized.
type Repository struct {
	kv store.KV
	mu sync.Mutex
}

func NewRepository(kv store.KV) *Repository {
	return &Repository{kv: kv}
}

// History returns the saved entries, newest first. A missing key yields an empty list.
func (r *Repository) History(ctx context.Context) ([]Entry, error) {
	list := []Entry{}
	if err := r.load(ctx, KeyHistory, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []Entry{}
	}
	return list, nil
}

// AppendHistory prepends entry and persists the resulting list.
func (r *Repository) AppendHistory(ctx context.Context, entry Entry, maxLength int) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.History(ctx)
	if err != nil {
		return nil, err
	}
	list = Append(list, entry, maxLength)
	if err := r.save(ctx, KeyHistory, list); err != nil {
		return nil, err
	}
	return list, nil
}

// ClearHistory removes every entry.
func (r *Repository) ClearHistory(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.kv.Delete(ctx, KeyHistory); err != nil {
		return fmt.Errorf("clear %s: %w", KeyHistory, err)
	}
	return nil
}

// Templates returns the saved templates, newest first.
func (r *Repository) Templates(ctx context.Context) ([]Template, error) {
	list := []Template{}
	if err := r.load(ctx, KeyTemplates, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []Template{}
	}
	return list, nil
}

// Template returns the template with the given id.
func (r *Repository) Template(ctx context.Context, id string) (Template, error) {
	list, err := r.Templates(ctx)
	if err != nil {
		return Template{}, err
	}
	for _, t := range list {
		if t.ID == id {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("template %q: %w", id, ErrTemplateNotFound)
}

// SaveTemplate stores tpl, replacing a template with the same name.
func (r *Repository) SaveTemplate(ctx context.Context, tpl Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.Templates(ctx)
	if err != nil {
		return err
	}
	return r.save(ctx, KeyTemplates, upsertTemplate(list, tpl))
}

// DeleteTemplate removes the template with the given id.
func (r *Repository) DeleteTemplate(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.Templates(ctx)
	if err != nil {
		return err
	}
	kept := make([]Template, 0, len(list))
	for _, t := range list {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(list) {
		return fmt.Errorf("template %q: %w", id, ErrTemplateNotFound)
	}
	return r.save(ctx, KeyTemplates, kept)
}

func (r *Repository) load(ctx context.Context, key string, v any) error {
	raw, err := r.kv.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) || (err == nil && len(raw) == 0) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (r *Repository) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.kv.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
