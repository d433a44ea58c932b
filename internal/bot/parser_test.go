package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		command   int
		parseid   int
		arguments interface{}
	}{
		{"not for the bot", "hello there", 0, PARSEID_NO_BOT_PREFIX, nil},
		{"only the prefix", "!  ", 0, PARSEID_NO_COMMAND, nil},
		{"unknown command", "!dance", 0, PARSEID_COMMAND_NOT_RECOGNISED, nil},
		{"create queue", "!createqueue", COMMAND_CREATEQUEUE, PARSEID_OK, nil},
		{"queue defaults to status", "!queue", COMMAND_QUEUE, PARSEID_OK, QUEUE_STATUS},
		{"queue subcommand", "!queue CLOSE", COMMAND_QUEUE, PARSEID_OK, QUEUE_CLOSE},
		{"queue bad subcommand", "!queue shuffle", COMMAND_QUEUE, PARSEID_SUBCOMMAND_NOT_RECOGNISED, nil},
		{"purge without timestamp", "!purgeafter", COMMAND_PURGEAFTER, PARSEID_NO_INPUT, nil},
		{"purge bad timestamp", "!purgeafter yesterday", COMMAND_PURGEAFTER, PARSEID_NOT_A_TIMESTAMP, nil},
		{"purge", "!purgeafter 2024-03-01 18:30:00", COMMAND_PURGEAFTER, PARSEID_OK, time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC)},
		{"purge quoted", "!purgeafter \"2024-03-01 18:30:00\"", COMMAND_PURGEAFTER, PARSEID_OK, time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC)},
		{"log every message", "!LogEveryMessage", COMMAND_LOGEVERYMESSAGE, PARSEID_OK, nil},
		{"help", "!help", COMMAND_HELP, PARSEID_OK, nil},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := Parse("!", test.message)
			assert.Equal(t, test.parseid, result.parseid)
			if test.parseid == PARSEID_OK {
				assert.Equal(t, test.command, result.command)
				assert.Equal(t, test.arguments, result.arguments)
				assert.Empty(t, result.errorMessage)
			}
		})
	}
}

func TestParseErrorMessages(t *testing.T) {
	assert.Equal(t, "Command `dance` not recognised", Parse("!", "!dance").errorMessage)
	assert.Equal(t, "Command `purgeafter` requires an argument", Parse("!", "!purgeafter").errorMessage)
	assert.Equal(t, "`shuffle` is not one of status, open, close, enable, disable", Parse("!", "!queue shuffle").errorMessage)
}

func TestAdminOnly(t *testing.T) {
	assert.False(t, Parse("!", "!help").AdminOnly())
	assert.False(t, Parse("!", "!queue").AdminOnly())
	assert.False(t, Parse("!", "!queue status").AdminOnly())
	assert.True(t, Parse("!", "!queue open").AdminOnly())
	assert.True(t, Parse("!", "!createqueue").AdminOnly())
	assert.True(t, Parse("!", "!purgeafter 2024-03-01 18:30:00").AdminOnly())
	assert.True(t, Parse("!", "!logeverymessage").AdminOnly())
}
