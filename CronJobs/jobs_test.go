package CronJobs

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"FleetDesk/Models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBackupPrunesOldFiles(t *testing.T) {
	db, err := Models.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, Models.Migrate(db))

	dir := t.TempDir()
	for i := 1; i <= 3; i++ {
		name := fmt.Sprintf("backup_fleetdesk_2020-01-0%d_02-00-00.json", i)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	s := NewScheduler(db, nil, dir)
	s.keepBackups = 2
	s.RunBackup()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Len(t, names, 3)
	assert.Contains(t, names, "notes.txt")
	assert.Contains(t, names, "backup_fleetdesk_2020-01-03_02-00-00.json")
	assert.NotContains(t, names, "backup_fleetdesk_2020-01-01_02-00-00.json")
}

func TestScheduleValidation(t *testing.T) {
	s := NewScheduler(nil, nil, t.TempDir())

	assert.Error(t, s.Start("not a cron", "0 0 7 * * *"))
	require.NoError(t, s.UpdateSchedule("backup", "0 30 1 * * *"))
	assert.Len(t, s.jobs, 1)
	assert.Error(t, s.UpdateSchedule("backup", "bad"))
	assert.Error(t, s.UpdateSchedule("cleanup", "0 0 1 * * *"))
	assert.Len(t, s.cronScheduler.Entries(), 1)
}
