package settings

import (
	"encoding/binary"
	"time"

	"github.com/sugawarayuuta/sonnet"
	"golang.org/x/crypto/blake2b"
)

// Ctx describes when and for which multiplexing context a staged setting
// becomes valid.
type Ctx struct {
	// Time is the UTC timestamp from which the setting is valid; nil
	// means immediately.
	Time *time.Time
	// Context is the user-defined multiplexing context.
	Context map[string]interface{}
}

// NewCtx returns a context valid from t.
func NewCtx(t time.Time, context map[string]interface{}) Ctx {
	utc := t.UTC()
	return Ctx{Time: &utc, Context: context}
}

// Equal reports whether both contexts select the same settings.
func (c Ctx) Equal(other Ctx) bool {
	switch {
	case c.Time == nil && other.Time != nil,
		c.Time != nil && other.Time == nil:
		return false
	case c.Time != nil && !c.Time.Equal(*other.Time):
		return false
	}
	if len(c.Context) != len(other.Context) {
		return false
	}
	return c.Hash() == other.Hash()
}

// Before orders contexts by validity time; a context without a time sorts
// first.
func (c Ctx) Before(other Ctx) bool {
	return c.Time == nil || (other.Time != nil && c.Time.Before(*other.Time))
}

// Hash returns a stable digest of the context. The context map is
// encoded canonically as JSON (object keys sorted) before hashing.
func (c Ctx) Hash() uint64 {
	payload := struct {
		Time    int64                  `json:"time"`
		Context map[string]interface{} `json:"context,omitempty"`
	}{Context: c.Context}
	if c.Time != nil {
		payload.Time = c.Time.UnixNano()
	}
	encoded, err := sonnet.Marshal(payload)
	if err != nil {
		return 0
	}
	sum := blake2b.Sum256(encoded)
	return binary.BigEndian.Uint64(sum[:8])
}
