package persist

import "fmt"

// NewStore creates the persistence backend selected by config.
func NewStore(config *StoreConfig) (Store, error) {
	if config == nil {
		return nil, fmt.Errorf("store config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case FileSystemStoreType:
		return NewFileSystemStore(config.Path)
	case S3StoreType:
		return NewS3Store(*config.S3)
	default:
		return nil, fmt.Errorf("unknown store type: %q", config.Type)
	}
}
