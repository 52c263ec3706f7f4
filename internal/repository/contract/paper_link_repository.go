package contract

import "context"

// PaperLinkRepository maps derived pdf filenames to hosted document URLs.
// The table is static configuration data; it is loaded per request-path use,
// never written by this service.
type PaperLinkRepository interface {
	All(ctx context.Context) (map[string]string, error)
}
