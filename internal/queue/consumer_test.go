package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatEvent(t *testing.T) {
	at := time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC)
	student := uint64(7)

	line := FormatEvent(TaskEvent{
		Event: TaskCreated, Kind: "homework", TaskID: 3, ActorID: 1,
		AssignedTo: &student, Title: "Algebra Test Prep", DueDate: "2099-01-01",
		Status: "Pending", OccurredAt: at,
	})
	assert.Equal(t,
		"[2030-05-01T10:00:00Z] task.created | kind=homework | task_id=3 | actor_id=1 | assigned_to=7 | status=Pending | due=2099-01-01 | title=\"Algebra Test Prep\"\n",
		line)

	global := FormatEvent(TaskEvent{Event: TaskDeleted, Kind: "assignment", TaskID: 9, OccurredAt: at})
	assert.Contains(t, global, "assigned_to=global")
}

func TestConsumerHandleAppends(t *testing.T) {
	dir := t.TempDir()
	c := &Consumer{LogDir: filepath.Join(dir, "logs"), Log: logrus.New()}

	body, err := json.Marshal(TaskEvent{Event: TaskUpdated, Kind: "homework", TaskID: 1, OccurredAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, c.handle(body))
	require.NoError(t, c.handle(body))

	data, err := os.ReadFile(filepath.Join(dir, "logs", "task_events.log"))
	require.NoError(t, err)
	assert.Equal(t, 2, countLines(string(data)))
}

func TestConsumerHandleRejectsGarbage(t *testing.T) {
	c := &Consumer{LogDir: t.TempDir(), Log: logrus.New()}
	assert.Error(t, c.handle([]byte("{not json")))
}

func countLines(s string) int {
	n := 0
	for _, r := range s {
		if r == '\n' {
			n++
		}
	}
	return n
}
