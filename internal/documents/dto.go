package documents

import "time"

// Summary is returned after a successful upload.
type Summary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Size      int64  `json:"size"`
	URL       string `json:"url"`
	Processed bool   `json:"processed"`
}

// DocumentView is the outward-facing representation of a stored document.
type DocumentView struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	FileURL     *string   `json:"fileUrl"`
	Title       string    `json:"title"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Provider    *string   `json:"provider"`
	Date        string    `json:"date"`
	Notes       string    `json:"notes,omitempty"`
	Tags        []string  `json:"tags"`
	FileName    string    `json:"fileName"`
	FileType    string    `json:"fileType"`
	FileSize    int64     `json:"fileSize"`
}

func toView(doc Document, url string) DocumentView {
	view := DocumentView{
		ID:          doc.ID,
		UserID:      doc.UserID,
		CreatedAt:   doc.CreatedAt,
		Title:       doc.Title,
		Type:        string(doc.DocumentType),
		Description: doc.Description,
		Date:        doc.DocumentDate.Format(dateLayout),
		Notes:       doc.Notes,
		Tags:        doc.Tags,
		FileName:    doc.FileName,
		FileType:    doc.ContentType,
		FileSize:    doc.SizeBytes,
	}
	if view.Tags == nil {
		view.Tags = []string{}
	}
	if url != "" {
		view.FileURL = &url
	}
	if doc.ProviderName != "" {
		name := doc.ProviderName
		view.Provider = &name
	}
	return view
}
