package notifier

import "context"

// Match describes a recorded fragment that matched the template.
type Match struct {
	FragmentID string
	File       string
	Duration   float64
}

type NotifierAPI interface {
	Notify(ctx context.Context, match Match) error
}
