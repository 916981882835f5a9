package jsonx

import "github.com/bytedance/sonic"

func JSON(v any) []byte {
	data, _ := sonic.Marshal(v)
	return data
}

func JSONS(v any) string {
	return string(JSON(v))
}

func JSONE(v any) ([]byte, error) {
	return sonic.Marshal(v)
}

func Pretty(v any) string {
	data, _ := sonic.MarshalIndent(v, "", " ")
	return string(data)
}

// Lazy defers encoding until String is called, so values passed to a
// disabled log level are never marshaled.
type Lazy struct {
	v      any
	pretty bool
}

func (lz Lazy) String() string {
	if lz.pretty {
		return Pretty(lz.v)
	}
	return JSONS(lz.v)
}

func LzJSON(v any) Lazy {
	return Lazy{v: v}
}

func LzPretty(v any) Lazy {
	return Lazy{v: v, pretty: true}
}
