// Package messages defines the boundary contract between the console bridge and
// an Application: a closed set of tagged message variants and their JSON wire form.
//
// Design decisions:
//   - Closed variants: Parse and Print are the only typed messages; the unexported
//     marker method keeps other packages from adding new ones
//   - Mandatory tag: every wire envelope carries a non-empty "type" field
//   - Interop fallback: Raw carries untyped envelopes from collaborators that do not
//     honor the schema; they are validated where they are consumed
//   - Sharp failures: malformed envelopes produce errors wrapping ErrProtocolViolation
//     instead of being dropped
//
// Wire format:
//
//	{"type":"parse","text":"hello"}   // console -> application
//	{"type":"print","text":"echo:hello"} // application -> console
//
// Example usage:
//
//	msg, err := messages.Decode([]byte(`{"type":"print","text":"hi"}`))
//	if err != nil {
//	    if errors.Is(err, messages.ErrProtocolViolation) {
//	        // reject the envelope
//	    }
//	}
//	if p, ok := msg.(messages.Print); ok {
//	    fmt.Println(p.Text)
//	}
package messages
