package weather

import "context"

// Fetcher retrieves the current weather for a location using the given
// credential. Failures should be reported as *FetchError.
type Fetcher interface {
	Fetch(ctx context.Context, location, credential string) (Record, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, location, credential string) (Record, error)

func (f FetcherFunc) Fetch(ctx context.Context, location, credential string) (Record, error) {
	return f(ctx, location, credential)
}

// Store is the contract the bounded cache must satisfy. Each call is atomic
// with respect to concurrent callers.
type Store interface {
	Get(location string) (Entry, bool)
	// Put writes value stamped with the current time, evicting the oldest
	// entry first when the store is full and location is new.
	Put(location string, value Record) Entry
	Delete(location string)
	// IsExpired reports age > ttl; IsFresh reports age < ttl. An entry
	// exactly ttl old is neither.
	IsExpired(e Entry) bool
	IsFresh(e Entry) bool
	Keys() []string
	Len() int
}

// StoreFactory creates the empty store owned by a new Client.
type StoreFactory func() Store
