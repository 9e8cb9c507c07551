package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePasswd(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".passwd-mfsfuse")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadFromPasswdFile(t *testing.T) {
	cred := NewCredentials()
	require.NoError(t, cred.LoadFromPasswdFile(writePasswd(t, "TEST_ACCESS_KEY:TEST_SECRET_KEY\n"), ""))
	assert.Equal(t, "TEST_ACCESS_KEY", cred.AccessKeyID)
	assert.Equal(t, "TEST_SECRET_KEY", cred.SecretAccessKey)
	assert.True(t, cred.IsValid())
}

func TestLoadFromPasswdFileBucketLine(t *testing.T) {
	path := writePasswd(t, "# shared\nDEFAULT:SECRET\nimages:IMG_KEY:IMG_SECRET\nother:O:S\n")

	cred := NewCredentials()
	require.NoError(t, cred.LoadFromPasswdFile(path, "images"))
	assert.Equal(t, "IMG_KEY", cred.AccessKeyID)
	assert.Equal(t, "IMG_SECRET", cred.SecretAccessKey)

	cred = NewCredentials()
	require.NoError(t, cred.LoadFromPasswdFile(path, "archive"))
	assert.Equal(t, "DEFAULT", cred.AccessKeyID)
}

func TestLoadFromPasswdFileInvalid(t *testing.T) {
	cred := NewCredentials()
	assert.Error(t, cred.LoadFromPasswdFile(writePasswd(t, "INVALID_FORMAT"), ""))
	assert.Error(t, cred.LoadFromPasswdFile(writePasswd(t, "only:bucket:lines:here\n"), ""))
	assert.Error(t, cred.LoadFromPasswdFile(writePasswd(t, "images:K:S\n"), "other"))
	assert.Error(t, cred.LoadFromPasswdFile("/nonexistent/file", ""))
	assert.False(t, cred.IsValid())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "ENV_KEY")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "ENV_SECRET")
	t.Setenv("AWS_SESSION_TOKEN", "TOKEN")
	t.Setenv("AWS_REGION", "eu-west-1")

	cred := NewCredentials()
	require.NoError(t, cred.LoadFromEnvironment())
	assert.Equal(t, "ENV_KEY", cred.AccessKeyID)
	assert.Equal(t, "ENV_SECRET", cred.SecretAccessKey)
	assert.Equal(t, "TOKEN", cred.SessionToken)
	assert.Equal(t, "eu-west-1", cred.Region)
}

func TestLoadFromEnvironmentMissing(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	assert.Error(t, NewCredentials().LoadFromEnvironment())
}
