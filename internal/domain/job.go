package domain

// JobOrder is what the job queue returns for an accepted brief.
type JobOrder struct {
	OrderID   string
	JobID     string
	QueueSize *int
}

// Asset is a generated output attached to an order.
type Asset struct {
	ID          string
	OrderID     string
	PreviewURL  string
	DownloadURL string
}

