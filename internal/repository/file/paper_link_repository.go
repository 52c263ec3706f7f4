package file

import (
	"context"
	"encoding/json"
	"os"

	"paper-chat-be/internal/repository/contract"
)

// PaperLinkRepository reads the link table from a JSON file of the shape
// {"Derived_Filename.pdf": "https://..."} once at startup.
type PaperLinkRepository struct {
	links map[string]string
}

func NewPaperLinkRepository(path string) (contract.PaperLinkRepository, error) {
	repo := &PaperLinkRepository{links: map[string]string{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// No link table configured; sources render as inert chips.
			return repo, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, &repo.links); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *PaperLinkRepository) All(_ context.Context) (map[string]string, error) {
	return r.links, nil
}
