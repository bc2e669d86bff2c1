package appfs

import (
	"io/fs"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFS(t *testing.T) {
	files := []string{
		path.Join(EmailTemplatesDir, "_base.txt"),
		path.Join(EmailTemplatesDir, "_base.gohtml"),
		path.Join(EmailTemplatesDir, "password_reset.txt"),
		path.Join(EmailTemplatesDir, "contract_signature.gohtml"),
		path.Join(MigrationsDir, "00001_init.sql"),
		ContractTemplate,
		CommonPasswords,
	}
	for _, name := range files {
		t.Run(name, func(t *testing.T) {
			_, err := fs.Stat(FS, name)
			assert.NoError(t, err)
		})
	}
}
