package upgrade

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequest_AgentID3(t *testing.T) {
	assert.Equal(t, "028", Request{AgentID: 28}.AgentID3())
	assert.Equal(t, "000", Request{AgentID: 0}.AgentID3())
	assert.Equal(t, "111", Request{AgentID: 111}.AgentID3())
}

func TestTaskInfo_Validate(t *testing.T) {
	t.Run("rejects neither variant set", func(t *testing.T) {
		assert.Error(t, TaskInfo{}.Validate())
	})

	t.Run("rejects both variants set", func(t *testing.T) {
		task := TaskInfo{
			Standard: &StandardTask{WpkFile: "a.wpk"},
			Custom:   &CustomTask{FilePath: "/tmp/a"},
		}
		assert.Error(t, task.Validate())
	})

	t.Run("standard requires wpk_file", func(t *testing.T) {
		assert.Error(t, TaskInfo{Standard: &StandardTask{}}.Validate())
	})

	t.Run("standard rejects malformed sha1", func(t *testing.T) {
		task := TaskInfo{Standard: &StandardTask{WpkFile: "a.wpk", WpkSha1: "not-hex"}}
		assert.Error(t, task.Validate())
	})

	t.Run("standard accepts valid sha1", func(t *testing.T) {
		task := TaskInfo{Standard: &StandardTask{
			WpkFile: "a.wpk",
			WpkSha1: "d321af253a0000000000000000000000000000aa",
		}}
		assert.NoError(t, task.Validate())
	})

	t.Run("custom requires file_path", func(t *testing.T) {
		assert.Error(t, TaskInfo{Custom: &CustomTask{}}.Validate())
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{ChunkSize: 1024, MaxThreads: 4, WpkRepositoryPath: "/var/ossec/wpk"}
	assert.NoError(t, valid.Validate())

	assert.Error(t, Config{MaxThreads: 4, WpkRepositoryPath: "/x"}.Validate())
	assert.Error(t, Config{ChunkSize: 1024, WpkRepositoryPath: "/x"}.Validate())
	assert.Error(t, Config{ChunkSize: 1024, MaxThreads: 4}.Validate())
}

func TestDefaultInstaller(t *testing.T) {
	assert.Equal(t, "upgrade.sh", DefaultInstaller("ubuntu"))
	assert.Equal(t, "upgrade.bat", DefaultInstaller("windows"))
	assert.Equal(t, "upgrade.bat", DefaultInstaller("Windows"))
}
