package services

import (
	"testing"
	"time"

	"engagement-engine/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTaskFixture(t *testing.T) (*TaskService, *models.Account, *models.Account) {
	db := testDB(t)
	ledger := NewLedgerService(db, testConfig())
	svc := NewTaskService(db, ledger)
	creator := seedAccount(t, db, "creator", 0, models.EnergyMax)
	assignee := seedAccount(t, db, "assignee", 0, models.EnergyMax)
	return svc, creator, assignee
}

func TestCreateTaskNotifiesAssignee(t *testing.T) {
	svc, creator, assignee := newTaskFixture(t)

	task, err := svc.CreateTask(creator.ID, assignee.ID, "Write onboarding doc", "", 30, nil)
	require.NoError(t, err)
	assert.Equal(t, models.TaskPending, task.Status)
	assert.Equal(t, models.PriorityNormal, task.Priority)

	assert.Equal(t, int64(1), notificationCount(t, svc.DB, assignee.ID, "task_assigned"))
}

func TestCreateTaskValidation(t *testing.T) {
	svc, creator, assignee := newTaskFixture(t)

	_, err := svc.CreateTask(creator.ID, assignee.ID, "", "", 10, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateTask(creator.ID, "no-such-account", "Do a thing", "", 10, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateTask(creator.ID, assignee.ID, "Do a thing", "urgent-ish", 10, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateTask(creator.ID, assignee.ID, "Do a thing", "", -5, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCompleteTaskPaysRewardOnce(t *testing.T) {
	svc, creator, assignee := newTaskFixture(t)

	task, err := svc.CreateTask(creator.ID, assignee.ID, "Review PRs", models.PriorityHigh, 30, nil)
	require.NoError(t, err)

	_, err = svc.StartTask(task.ID, assignee.ID)
	require.NoError(t, err)

	done, err := svc.CompleteTask(task.ID, assignee.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskCompleted, done.Status)
	require.NotNil(t, done.RewardPaidAt)
	assert.Equal(t, int64(30), accountCoins(t, svc.DB, assignee.ID))

	// A second complete is rejected and pays nothing.
	_, err = svc.CompleteTask(task.ID, assignee.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, int64(30), accountCoins(t, svc.DB, assignee.ID))

	rewards := ledgerEntries(t, svc.DB, assignee.ID, models.ReasonTaskReward)
	assert.Len(t, rewards, 1)
}

func TestCompleteTaskOnlyAssignee(t *testing.T) {
	svc, creator, assignee := newTaskFixture(t)

	task, err := svc.CreateTask(creator.ID, assignee.ID, "Review PRs", "", 10, nil)
	require.NoError(t, err)

	_, err = svc.CompleteTask(task.ID, creator.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int64(0), accountCoins(t, svc.DB, assignee.ID))
}

func TestStartTaskTransitions(t *testing.T) {
	svc, creator, assignee := newTaskFixture(t)

	task, err := svc.CreateTask(creator.ID, assignee.ID, "Review PRs", "", 10, nil)
	require.NoError(t, err)

	_, err = svc.StartTask(task.ID, creator.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	started, err := svc.StartTask(task.ID, assignee.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskInProgress, started.Status)

	// Starting an in-progress task is not a valid transition.
	_, err = svc.StartTask(task.ID, assignee.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelTaskCreatorOrAdmin(t *testing.T) {
	svc, creator, assignee := newTaskFixture(t)

	task, err := svc.CreateTask(creator.ID, assignee.ID, "Review PRs", "", 10, nil)
	require.NoError(t, err)

	_, err = svc.CancelTask(task.ID, assignee.ID, false, "not needed")
	assert.ErrorIs(t, err, ErrUnauthorized)

	cancelled, err := svc.CancelTask(task.ID, creator.ID, false, "not needed")
	require.NoError(t, err)
	assert.Equal(t, models.TaskCancelled, cancelled.Status)
	assert.Equal(t, "not needed", cancelled.CancelReason)

	// No reward moves on cancel, and a cancelled task cannot complete.
	assert.Equal(t, int64(0), accountCoins(t, svc.DB, assignee.ID))
	_, err = svc.CompleteTask(task.ID, assignee.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestPostponeAndReactivate(t *testing.T) {
	svc, creator, assignee := newTaskFixture(t)

	task, err := svc.CreateTask(creator.ID, assignee.ID, "Review PRs", "", 10, nil)
	require.NoError(t, err)

	_, err = svc.PostponeTask(task.ID, assignee.ID, time.Now().Add(-time.Hour))
	assert.ErrorIs(t, err, ErrInvalidInput)

	postponed, err := svc.PostponeTask(task.ID, assignee.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.TaskPostponed, postponed.Status)

	// Not due yet, nothing flips.
	n, err := svc.ReactivateDueTasks()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	// Pull the resume date into the past and run the job again.
	require.NoError(t, svc.DB.Model(&models.Task{}).
		Where("id = ?", task.ID).
		Update("resume_at", time.Now().Add(-time.Minute)).Error)

	n, err = svc.ReactivateDueTasks()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var fresh models.Task
	require.NoError(t, svc.DB.First(&fresh, "id = ?", task.ID).Error)
	assert.Equal(t, models.TaskPending, fresh.Status)
	assert.Nil(t, fresh.ResumeAt)
}

func TestDuePostponedTaskCompletesWithoutScheduler(t *testing.T) {
	svc, creator, assignee := newTaskFixture(t)

	task, err := svc.CreateTask(creator.ID, assignee.ID, "Review PRs", "", 10, nil)
	require.NoError(t, err)
	_, err = svc.PostponeTask(task.ID, assignee.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)

	// While the resume date is in the future the postponement holds.
	_, err = svc.CompleteTask(task.ID, assignee.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, svc.DB.Model(&models.Task{}).
		Where("id = ?", task.ID).
		Update("resume_at", time.Now().Add(-time.Minute)).Error)

	// Once it passes, the complete succeeds with no scheduler tick in between.
	done, err := svc.CompleteTask(task.ID, assignee.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskCompleted, done.Status)
	assert.Equal(t, int64(10), accountCoins(t, svc.DB, assignee.ID))
}
