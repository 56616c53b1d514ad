package cart

import (
	"context"
	"encoding/json"
	"os"
)

// FileAdapter persists the cart as a JSON document on disk. Used where no
// redis is around (local tooling, single-user setups).
type FileAdapter struct {
	Path string
}

func (a *FileAdapter) Load(_ context.Context) ([]Item, error) {
	raw, err := os.ReadFile(a.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, nil
	}
	return items, nil
}

func (a *FileAdapter) Save(_ context.Context, items []Item) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return os.WriteFile(a.Path, raw, 0o600)
}
