package chatroom

import (
	"context"
	"errors"
	"time"

	"github.com/c-pro/geche"

	"github.com/aflah-pp/NarrativeNexus/internal/models"
)

var ErrUnknownUser = errors.New("unknown user")

const directoryTTL = 5 * time.Minute

// DirectorySource lists the community's public users. The API client
// satisfies it.
type DirectorySource interface {
	ExploreUsers(ctx context.Context) ([]models.UserSummary, error)
}

// Directory resolves roster usernames to profile summaries for display,
// behind a TTL cache so painting the online list does not hammer the
// explore endpoint. It is a display convenience, not session state: entries
// expire and are refetched.
type Directory struct {
	source DirectorySource
	cache  geche.Geche[string, models.UserSummary]
}

func NewDirectory(ctx context.Context, source DirectorySource) *Directory {
	return &Directory{
		source: source,
		cache:  geche.NewMapTTLCache[string, models.UserSummary](ctx, directoryTTL, time.Minute),
	}
}

// Lookup resolves one username, filling the cache from a single explore
// fetch on miss.
func (d *Directory) Lookup(ctx context.Context, username string) (models.UserSummary, error) {
	if user, err := d.cache.Get(username); err == nil {
		return user, nil
	}

	users, err := d.source.ExploreUsers(ctx)
	if err != nil {
		return models.UserSummary{}, err
	}

	var found *models.UserSummary
	for _, u := range users {
		d.cache.Set(u.Username, u)
		if u.Username == username {
			u := u
			found = &u
		}
	}
	if found == nil {
		return models.UserSummary{}, ErrUnknownUser
	}
	return *found, nil
}
