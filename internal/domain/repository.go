package domain

import "context"

// AvatarRepository defines persistence for generated avatar records.
type AvatarRepository interface {
	// Insert appends one immutable record and returns its assigned ID.
	Insert(ctx context.Context, record *AvatarRecord) (string, error)
	// ListByUser returns the user's records ordered by creation time
	// descending. A record whose stored image field is missing or malformed
	// is returned with empty ImageBytes rather than aborting the listing.
	ListByUser(ctx context.Context, userID string) ([]AvatarRecord, error)
	// CountByUser returns the number of records stored for the user.
	CountByUser(ctx context.Context, userID string) (int, error)
}
