package gatekeeper

import "strings"

// parameterLookupKeys returns the names a ParameterRule might be filed
// under for a given call parameter name: the name as-is, its snake_case
// form, and its camelCase form. A rules author can write
// "apiKey" or "api_key" and it resolves to the same rule regardless of
// which casing the tool itself uses for that parameter.
func parameterLookupKeys(name string) []string {
	snake := toSnakeCase(name)
	camel := toCamelCase(name)

	keys := []string{name}
	if snake != name {
		keys = append(keys, snake)
	}
	if camel != name && camel != snake {
		keys = append(keys, camel)
	}
	return keys
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func toCamelCase(s string) string {
	parts := strings.Split(s, "_")
	if len(parts) == 1 {
		return s
	}
	var b strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i == 0 {
			b.WriteString(p)
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}
