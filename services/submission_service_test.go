package services

import (
	"testing"

	"engagement-engine/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubmissionFixture(t *testing.T) (*SubmissionService, *models.Account, *models.Account) {
	db := testDB(t)
	ledger := NewLedgerService(db, testConfig())
	svc := NewSubmissionService(db, ledger)
	claimant := seedAccount(t, db, "claimant", 0, models.EnergyMax)
	reviewer := seedAdmin(t, db, "reviewer")
	return svc, claimant, reviewer
}

func TestCreateSubmissionValidation(t *testing.T) {
	svc, claimant, _ := newSubmissionFixture(t)

	_, err := svc.CreateSubmission(claimant.ID, "", 10, "evidence/a.jpg")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.CreateSubmission(claimant.ID, "safety-basics", 0, "evidence/a.jpg")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.CreateSubmission(claimant.ID, "safety-basics", 10, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	sub, err := svc.CreateSubmission(claimant.ID, "safety-basics", 10, "evidence/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionPending, sub.Status)
}

func TestApprovePaysClaimedPoints(t *testing.T) {
	svc, claimant, reviewer := newSubmissionFixture(t)

	sub, err := svc.CreateSubmission(claimant.ID, "safety-basics", 25, "evidence/a.jpg")
	require.NoError(t, err)

	approved, err := svc.Approve(sub.ID, reviewer, nil)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionApproved, approved.Status)
	require.NotNil(t, approved.AwardedPoints)
	assert.Equal(t, int64(25), *approved.AwardedPoints)
	assert.Equal(t, int64(25), accountCoins(t, svc.DB, claimant.ID))
	assert.Equal(t, int64(1), notificationCount(t, svc.DB, claimant.ID, "submission_approved"))
}

func TestApproveWithAdjustedPoints(t *testing.T) {
	svc, claimant, reviewer := newSubmissionFixture(t)

	sub, err := svc.CreateSubmission(claimant.ID, "safety-basics", 25, "evidence/a.jpg")
	require.NoError(t, err)

	adjusted := int64(15)
	approved, err := svc.Approve(sub.ID, reviewer, &adjusted)
	require.NoError(t, err)

	// The reviewer's figure, not the claim, is what gets credited and stored.
	assert.Equal(t, int64(15), *approved.AwardedPoints)
	assert.Equal(t, int64(15), accountCoins(t, svc.DB, claimant.ID))
}

func TestReviewIsExactlyOnce(t *testing.T) {
	svc, claimant, reviewer := newSubmissionFixture(t)

	sub, err := svc.CreateSubmission(claimant.ID, "safety-basics", 25, "evidence/a.jpg")
	require.NoError(t, err)

	_, err = svc.Approve(sub.ID, reviewer, nil)
	require.NoError(t, err)

	_, err = svc.Approve(sub.ID, reviewer, nil)
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
	_, err = svc.Reject(sub.ID, reviewer, "changed my mind")
	assert.ErrorIs(t, err, ErrAlreadyReviewed)

	// The credit happened exactly once.
	assert.Equal(t, int64(25), accountCoins(t, svc.DB, claimant.ID))
	assert.Len(t, ledgerEntries(t, svc.DB, claimant.ID, models.ReasonSubmission), 1)
}

func TestRejectMovesNothing(t *testing.T) {
	svc, claimant, reviewer := newSubmissionFixture(t)

	sub, err := svc.CreateSubmission(claimant.ID, "safety-basics", 25, "evidence/a.jpg")
	require.NoError(t, err)

	rejected, err := svc.Reject(sub.ID, reviewer, "photo is unreadable")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionRejected, rejected.Status)
	assert.Equal(t, "photo is unreadable", rejected.RejectedReason)
	assert.Equal(t, int64(0), accountCoins(t, svc.DB, claimant.ID))
	assert.Equal(t, int64(1), notificationCount(t, svc.DB, claimant.ID, "submission_rejected"))
}

func TestReviewRequiresAdmin(t *testing.T) {
	svc, claimant, _ := newSubmissionFixture(t)
	peer := seedAccount(t, svc.DB, "peer", 0, models.EnergyMax)

	sub, err := svc.CreateSubmission(claimant.ID, "safety-basics", 25, "evidence/a.jpg")
	require.NoError(t, err)

	_, err = svc.Approve(sub.ID, peer, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Reject(sub.ID, peer, "nope")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int64(0), accountCoins(t, svc.DB, claimant.ID))
}
