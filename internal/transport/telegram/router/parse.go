package router

import (
	"strings"

	"github.com/google/uuid"
)

func newReqID() string {
	// Full UUIDs are noisy in logs; the first block is unique enough
	// for correlating one process's requests.
	return uuid.NewString()[:8]
}

// tokenize splits command text into tokens with quote support, e.g.
//
//	/addraid name="Black Seraphimon" times=16:00
func tokenize(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var (
		out   []string
		buf   strings.Builder
		inQ   bool
		qChar byte
		esc   bool
	)
	flush := func() {
		if buf.Len() > 0 {
			out = append(out, buf.String())
			buf.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if esc {
			buf.WriteByte(ch)
			esc = false
			continue
		}
		if ch == '\\' {
			esc = true
			continue
		}
		if inQ {
			if ch == qChar {
				inQ = false
				continue
			}
			buf.WriteByte(ch)
			continue
		}
		switch ch {
		case '"', '\'':
			inQ = true
			qChar = ch
		case ' ', '\t', '\n', '\r':
			flush()
		default:
			buf.WriteByte(ch)
		}
	}
	flush()
	return out
}

// parseKeyValues splits args into positionals and key=value pairs. Keys are
// lowercased; a bare "key=" yields an empty value (used to clear a field).
func parseKeyValues(args []string) (pos []string, kv map[string]string) {
	kv = map[string]string{}
	for _, a := range args {
		eq := strings.IndexByte(a, '=')
		if eq <= 0 {
			pos = append(pos, a)
			continue
		}
		kv[strings.ToLower(a[:eq])] = a[eq+1:]
	}
	return pos, kv
}
