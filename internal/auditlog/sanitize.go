package auditlog

import "strings"

const redacted = "<redacted>"

// secretFlags take a value that must never reach the log.
var secretFlags = map[string]bool{"password": true}

// SanitizeArgs returns args with secret flag values replaced. Arguments
// after "--" are positional and kept.
func SanitizeArgs(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)

	for i := 0; i < len(out); i++ {
		arg := out[i]
		if arg == "--" {
			break
		}
		name, _, inline := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || !secretFlags[name] {
			continue
		}
		switch {
		case inline:
			out[i] = arg[:strings.IndexByte(arg, '=')+1] + redacted
		case i+1 < len(out):
			i++
			out[i] = redacted
		default:
			out = append(out, redacted)
		}
	}
	return out
}
