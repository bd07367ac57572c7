// Package migrations embeds the goose SQL migrations applied by the store.
package migrations

import "embed"

// FS holds every *.sql migration in lexical (version) order.
//
//go:embed *.sql
var FS embed.FS
