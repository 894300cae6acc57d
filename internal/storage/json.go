package storage

import (
	"encoding/json"
	"fmt"
)

// marshalProto serializes a structured blob. encoding/json writes struct
// fields in declaration order and map keys sorted, so the output is
// deterministic. A marshal failure is an invariant failure.
func marshalProto(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("storage: marshal proto: %v", err))
	}
	return string(data)
}

// unmarshalProto deserializes a structured blob. Unknown fields are
// tolerated for forward compatibility; a syntactically broken blob is an
// invariant failure.
func unmarshalProto(data string, v any) {
	if err := json.Unmarshal([]byte(data), v); err != nil {
		panic(fmt.Sprintf("storage: unmarshal proto: %v", err))
	}
}
