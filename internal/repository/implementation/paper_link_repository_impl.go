package implementation

import (
	"context"

	"gorm.io/gorm"

	"paper-chat-be/internal/model"
	"paper-chat-be/internal/repository/contract"
)

type PaperLinkRepositoryImpl struct {
	db *gorm.DB
}

func NewPaperLinkRepository(db *gorm.DB) contract.PaperLinkRepository {
	return &PaperLinkRepositoryImpl{db: db}
}

func (r *PaperLinkRepositoryImpl) All(ctx context.Context) (map[string]string, error) {
	var rows []model.PaperLink
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}

	links := make(map[string]string, len(rows))
	for _, row := range rows {
		links[row.PdfFile] = row.Url
	}
	return links, nil
}
