package schema

import "encoding/json"

// Schema is message schema interface
type Schema interface {
	// String returns the plain text presentation of the schema
	String() string
}

// Stringify returns the text sent to a language model for a schema.
// String values are sent verbatim, everything else as JSON.
func Stringify(s Schema) string {
	if s == nil {
		return ""
	}
	if v, ok := s.(String); ok {
		return string(v)
	}
	if v, ok := s.(*String); ok && v != nil {
		return string(*v)
	}
	bs, _ := json.Marshal(s)
	return string(bs)
}

// ToBytes is the byte slice variant of Stringify
func ToBytes(s Schema) []byte {
	return []byte(Stringify(s))
}
