// Package appfs embeds the files the binaries ship with.
package appfs

import "embed"

//go:embed migrations/*.sql all:templates assets
var FS embed.FS

const (
	MigrationsDir     = "migrations"
	EmailTemplatesDir = "templates/email"
	ContractTemplate  = "templates/contract/enrollment.gohtml"
	CommonPasswords   = "assets/common-passwords.txt"
)
