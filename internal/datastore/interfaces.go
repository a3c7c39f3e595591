// interfaces.go defines the interface for the database operations
package datastore

// Interface abstracts the underlying database implementation and defines the
// operations covercache needs from durable storage. The resolution service is
// the only writer; concurrent readers are safe.
type Interface interface {
	Open() error
	Close() error

	// Identity records
	GetIdentity(key string) (*Identity, error)
	SaveIdentity(identity *Identity) error
	DeleteIdentity(key string) error
	ClearIdentities() error

	// Not-found records
	GetNotFound(key string) (*NotFound, error)
	SaveNotFound(record *NotFound) error
	DeleteNotFound(key string) error
	GetAllNotFound() ([]NotFound, error)
	ClearNotFound() error
}
