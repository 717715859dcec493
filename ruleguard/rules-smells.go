package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

func smells(m dsl.Matcher) {
	// Two consecutive guard-ifs returning the same value are mergeable with ||.
	m.Match(`if $c1 { return $ret }; if $c2 { return $ret }`).
		Report(`two consecutive guards return the same value; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { return $ret }`)

	m.Match(`if $c1 { continue }; if $c2 { continue }`).
		Report(`two consecutive continues; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { continue }`)

	// Contexts belong in call chains, not placeholders.
	m.Match(`context.TODO()`).
		Report(`context.TODO in committed code; thread a real context through the call chain`)

	// fmt.Errorf without %w loses the error chain for errors.Is checks.
	m.Match(`fmt.Errorf($fmt, $*_, $err)`).
		Where(m["err"].Type.Implements("error") && !m["fmt"].Text.Matches(`%w`)).
		Report(`wrapping an error without %w breaks errors.Is and errors.As`)
}
