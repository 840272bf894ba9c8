// Package gorules holds the gocritic ruleguard rules for this repository.
package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// stdoutWrites flags direct writes to stdout outside cmd/: in serve mode
// stdout carries the MCP stream and any stray byte corrupts it.
func stdoutWrites(m dsl.Matcher) {
	m.Match(`fmt.Print($*_)`, `fmt.Println($*_)`, `fmt.Printf($*_)`).
		Where(!m.File().PkgPath.Matches(`/cmd/`)).
		Report(`stdout is the MCP transport; log through the injected logrus.FieldLogger instead`)

	m.Match(`log.Print($*_)`, `log.Println($*_)`, `log.Printf($*_)`).
		Report(`use the injected logrus.FieldLogger, not the standard log package`)
}

// secretFields flags log fields that would leak the shared secret.
func secretFields(m dsl.Matcher) {
	m.Match(`$l.WithField($k, $_)`).
		Where(m["k"].Text.Matches(`^"(api_key|apiKey|token|secret)"$`)).
		Report(`never log $k; credentials stay out of logs`)

	m.Match(`logrus.Fields{$*_, $k: $_, $*_}`).
		Where(m["k"].Text.Matches(`^"(api_key|apiKey|token|secret)"$`)).
		Report(`never log $k; credentials stay out of logs`)
}

// errorWrapping keeps sentinel errors matchable with errors.Is.
func errorWrapping(m dsl.Matcher) {
	m.Match(`errors.New(fmt.Sprintf($*args))`).
		Report(`use fmt.Errorf($args)`).
		Suggest(`fmt.Errorf($args)`)

	m.Match(`fmt.Errorf($f, $*_, $err.Error(), $*_)`).
		Where(m["err"].Type.Is(`error`)).
		Report(`wrap $err with %w instead of flattening it with .Error()`)
}

// contextKeys flags untyped context keys, which collide across packages.
func contextKeys(m dsl.Matcher) {
	m.Match(`context.WithValue($_, $k, $_)`).
		Where(m["k"].Type.Is(`string`)).
		Report(`use a named key type (see internal/api/ctxkeys) instead of a plain string`)
}

func smells(m dsl.Matcher) {
	// Two consecutive guards with the same return can be merged with ||.
	m.Match(`if $c1 { return $ret }; if $c2 { return $ret }`).
		Report(`two consecutive guards return the same value; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { return $ret }`)

	m.Match(`if $c1 { continue }; if $c2 { continue }`).
		Report(`two consecutive continues; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { continue }`)

	m.Match(`for $*_ { for $*_ { $*_ } }`).
		Report(`nested for-loop; consider extracting inner loop logic or reducing algorithmic complexity`)
}
