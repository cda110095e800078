package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateFilePath(t *testing.T) {
	assert.NoError(t, ValidateFilePath("/var/lib/remindd/remindd.db"))
	assert.NoError(t, ValidateFilePath("data/remindd.db"))
	assert.NoError(t, ValidateFilePath("config.json"))

	assert.Error(t, ValidateFilePath(""))
	assert.Error(t, ValidateFilePath("../etc/passwd"))
	assert.Error(t, ValidateFilePath("data/../../secrets"))
}

func TestValidateFilePathWithBase(t *testing.T) {
	assert.NoError(t, ValidateFilePathWithBase("remindd.db", "/var/lib/remindd"))
	assert.NoError(t, ValidateFilePathWithBase("sub/dir/file.db", "/var/lib/remindd"))

	assert.Error(t, ValidateFilePathWithBase("../outside", "/var/lib/remindd"))
	assert.Error(t, ValidateFilePathWithBase("", "/var/lib/remindd"))
}
