package models

import "fmt"

// Well-known output keys
const (
	DefaultKey       = "default"
	PrettyKey        = "pretty"
	SegmentsKey      = "segments"
	RequestedKey     = "requested"
	FoundKey         = "found"
	RawKey           = "raw"
	URIKey           = "uri"
	MIMETypeKey      = "mime_type"
	MalformedJSONKey = "malformed_json"
)

type Data struct {
	Value any
}

func (d *Data) String() string {
	if d == nil {
		return ""
	}
	switch v := d.Value.(type) {
	case string:
		return v
	case []byte:
		return fmt.Sprintf("<%d bytes>", len(v))
	}
	return fmt.Sprintf("%v", d.Value)
}

func CreateDefaultResultData(value any) map[string]*Data {
	return CreateResultData(DefaultKey, value)
}

func CreateResultData(name string, value any) map[string]*Data {
	return map[string]*Data{
		name: {
			Value: value,
		},
	}
}
