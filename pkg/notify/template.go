// Copyright 2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package notify

import "strings"

// Render substitutes ${NAME} placeholders in template using vars. It is a
// pure, total function:
//
//   - a placeholder whose NAME is present in vars is replaced with the
//     value, at every occurrence
//   - a placeholder whose NAME is absent stays in the output
//     byte-identical, so missing variables are visible in the sent message
//     instead of silently producing blank output
//   - anything that is not an exact ${...} pair passes through literally:
//     a lone $, a ${ with no closing brace, ${} with an empty name
//
// Substituted values are not rescanned, so a value containing ${...} does
// not trigger further expansion.
func Render(template string, vars map[string]string) string {
	var b strings.Builder
	b.Grow(len(template))
	for i := 0; i < len(template); {
		if template[i] != '$' || i+1 >= len(template) || template[i+1] != '{' {
			b.WriteByte(template[i])
			i++
			continue
		}
		end := strings.IndexByte(template[i+2:], '}')
		if end < 0 {
			// Unterminated placeholder, keep the rest as-is.
			b.WriteString(template[i:])
			break
		}
		name := template[i+2 : i+2+end]
		if value, ok := vars[name]; ok && name != "" {
			b.WriteString(value)
		} else {
			b.WriteString(template[i : i+end+3])
		}
		i += end + 3
	}
	return b.String()
}
