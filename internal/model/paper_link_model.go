package model

// PaperLink is one row of the hosted-document link table.
type PaperLink struct {
	PdfFile string `gorm:"column:pdf_file;primaryKey"`
	Url     string `gorm:"column:url"`
}

func (PaperLink) TableName() string {
	return "paper_links"
}
