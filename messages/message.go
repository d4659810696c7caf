package messages

import (
	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	// TypeParse tags a raw console line forwarded to the application.
	TypeParse = "parse"
	// TypePrint tags text the application wants rendered on the console.
	TypePrint = "print"
)

// Message is a tagged message exchanged with an Application.
type Message interface {
	// Type returns the wire tag of the message.
	Type() string
	message()
}

// Parse is an inbound console line. Empty text is valid: blank lines are forwarded as-is.
type Parse struct {
	Text string `json:"text"`
}

// NewParse creates an inbound message for a console line.
func NewParse(text string) Parse {
	return Parse{Text: text}
}

func (Parse) Type() string { return TypeParse }
func (Parse) message()     {}

// MarshalJSON writes the tagged wire form of the message.
func (p Parse) MarshalJSON() ([]byte, error) {
	return marshalTagged(TypeParse, p.Text)
}

// UnmarshalJSON accepts only a well formed parse envelope.
func (p *Parse) UnmarshalJSON(data []byte) error {
	msg, err := Decode(data)
	if err != nil {
		return err
	}
	v, ok := msg.(Parse)
	if !ok {
		return violation(msg.Type(), "expected %q", TypeParse)
	}
	*p = v
	return nil
}

// Print is an outbound message rendered by the console sink.
type Print struct {
	Text string `json:"text"`
}

// NewPrint creates an outbound message with the text to render.
func NewPrint(text string) Print {
	return Print{Text: text}
}

func (Print) Type() string { return TypePrint }
func (Print) message()     {}

// MarshalJSON writes the tagged wire form of the message.
func (p Print) MarshalJSON() ([]byte, error) {
	return marshalTagged(TypePrint, p.Text)
}

// UnmarshalJSON accepts only a well formed print envelope.
func (p *Print) UnmarshalJSON(data []byte) error {
	msg, err := Decode(data)
	if err != nil {
		return err
	}
	v, ok := msg.(Print)
	if !ok {
		return violation(msg.Type(), "expected %q", TypePrint)
	}
	*p = v
	return nil
}

// Raw is an untyped envelope as produced by collaborators outside this module.
// It satisfies Message so it can travel through a send function, but it must be
// resolved with FromMap before its payload is trusted.
type Raw map[string]any

// Type returns the "type" field when it is a string, otherwise the empty string.
func (r Raw) Type() string {
	tpe, _ := r["type"].(string)
	return tpe
}

func (Raw) message() {}

func marshalTagged(tpe, text string) ([]byte, error) {
	out, err := sjson.SetBytes([]byte(`{"type":""}`), "type", tpe)
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(out, "text", text)
}

// FromMap resolves an untyped envelope into one of the typed variants.
func FromMap(m map[string]any) (Message, error) {
	if m == nil {
		return nil, violation("", "message is empty")
	}
	tpe, ok := m["type"]
	if !ok {
		return nil, violation("", "message has no `type` defined")
	}
	text, hasText := m["text"]
	return build(tpe, text, hasText)
}

// Decode parses a single JSON envelope into a typed message.
func Decode(data []byte) (Message, error) {
	if !gjson.ValidBytes(data) {
		return nil, violation("", "invalid json: %s", data)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, violation("", "message must be a json object")
	}
	tpe := doc.Get("type")
	if !tpe.Exists() {
		return nil, violation("", "message has no `type` defined")
	}
	text := doc.Get("text")
	return build(tpe.Value(), text.Value(), text.Exists())
}

// Split parses a reply that is either a single envelope or an array of envelopes
// into untyped messages. Only the JSON shape is checked here.
func Split(data []byte) ([]Raw, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, violation("", "invalid json: %v", err)
	}
	switch v := doc.(type) {
	case map[string]any:
		return []Raw{v}, nil
	case []any:
		result := make([]Raw, 0, len(v))
		for idx, elem := range v {
			m, ok := elem.(map[string]any)
			if !ok {
				return nil, violation("", "element %d is not a json object", idx)
			}
			result = append(result, m)
		}
		return result, nil
	default:
		return nil, violation("", "expected a json object or array, got %T", doc)
	}
}

// Encode writes the wire form of any message, including Raw envelopes.
func Encode(msg Message) ([]byte, error) {
	if msg == nil {
		return nil, violation("", "message is nil")
	}
	return json.Marshal(msg)
}

func build(tpe, text any, hasText bool) (Message, error) {
	name, ok := tpe.(string)
	if !ok || name == "" {
		return nil, violation("", "`type` must be a non-empty string, got %v", tpe)
	}

	switch name {
	case TypeParse, TypePrint:
	default:
		return nil, violation(name, "cannot handle message type")
	}

	if !hasText {
		return nil, violation(name, "missing required field `text`")
	}
	str, ok := text.(string)
	if !ok {
		return nil, violation(name, "`text` must be a string, got %T", text)
	}

	if name == TypeParse {
		return NewParse(str), nil
	}
	return NewPrint(str), nil
}
