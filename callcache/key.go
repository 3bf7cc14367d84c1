package callcache

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ForrestTrepte/SoCloverAI/types"
)

// Key identifies one memoized call. Trial lets the same request and
// configuration be memoized several times independently.
type Key struct {
	Trial       int
	Fingerprint string
	Signature   string

	// Model is carried from the typed Target and is not part of the key's identity.
	Model string
	// Kind is carried from the typed Target and is not part of the key's identity.
	Kind types.Kind
}

// NewKey builds a key for a request issued against target.
func NewKey(trial int, fingerprint string, target types.Target) Key {
	return Key{
		Trial:       trial,
		Fingerprint: fingerprint,
		Signature:   target.Signature(),
		Model:       target.Model,
		Kind:        target.Kind,
	}
}

const keySeparator = " ::: "

// String encodes the identifying components as "trial <n> ::: <fingerprint>
// ::: <signature>". A fingerprint containing ":::" or starting with a double
// quote is written Go-quoted, so the first separator after an unquoted
// fingerprint always ends it and distinct keys never share a string.
func (k Key) String() string {
	return "trial " + strconv.Itoa(k.Trial) + keySeparator + encodeFingerprint(k.Fingerprint) + keySeparator + k.Signature
}

func encodeFingerprint(fp string) string {
	if strings.Contains(fp, ":::") || strings.HasPrefix(fp, `"`) {
		return strconv.Quote(fp)
	}
	return fp
}

// Validate checks the key's invariants.
func (k Key) Validate() error {
	if k.Trial < 0 {
		return fmt.Errorf("%w: trial must be non-negative, got %d", types.ErrConfiguration, k.Trial)
	}
	return nil
}

// ResolveModel returns the key's model, parsing the signature when the key
// was not built from a typed Target.
func (k Key) ResolveModel() (string, error) {
	if k.Model != "" {
		return k.Model, nil
	}
	return ModelFromSignature(k.Signature)
}

var modelNameRe = regexp.MustCompile(`'model_name',\s*'(?P<format1>[^']+)'|"model_name":\s*"(?P<format2>[^"]+)"`)

// ModelFromSignature extracts the model name from a serialized configuration.
// Two shapes are recognized: a repr-style pair ('model_name', 'gpt-4') and a
// JSON field "model_name": "gpt-4".
func ModelFromSignature(signature string) (string, error) {
	m := modelNameRe.FindStringSubmatch(signature)
	if m == nil {
		return "", fmt.Errorf("%w: could not find model_name in signature: %s", types.ErrConfiguration, signature)
	}
	if name := m[modelNameRe.SubexpIndex("format1")]; name != "" {
		return name, nil
	}
	return m[modelNameRe.SubexpIndex("format2")], nil
}
