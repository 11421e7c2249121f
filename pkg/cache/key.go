package cache

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Key builds a cache key from the component name, the value under
// validation, the active configuration, and the schema version.
//
// The value and configuration are hashed over their canonical JSON
// encoding. encoding/json sorts map keys, so the hash is stable across map
// iteration order. Values that cannot be marshalled (channels, funcs) fall
// back to their Go-syntax representation, which is deterministic enough
// for caching purposes and never fails.
func Key(name string, value, config any, schemaVersion string) string {
	return fmt.Sprintf("%s:%016x:%016x:%s",
		name, structuralHash(value), structuralHash(config), schemaVersion)
}

func structuralHash(v any) uint64 {
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte(fmt.Sprintf("%#v", v))
	}
	return xxhash.Sum64(data)
}
