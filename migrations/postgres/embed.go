// Package migrations embeds the SQL migration steps for the gatehouse store.
//
// Each step is a pair NNNN_<revision>_{up,down}.sql where <revision> is the
// opaque identifier the step leaves the store stamped at. Steps are totally
// ordered by the NNNN prefix.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
