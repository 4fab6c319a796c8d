// Package migrations embeds the SQL migrations of the assistant's own
// PostgreSQL database (chat history).
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
